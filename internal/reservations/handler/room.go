package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/engine"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

const dateLayout = "2006-01-02"

type RoomHandler struct {
	engine   *engine.Engine
	location *time.Location
	log      *logger.Logger
}

// NewRoomHandler parses availability dates in loc, the business time zone.
func NewRoomHandler(e *engine.Engine, loc *time.Location, log *logger.Logger) *RoomHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RoomHandler{
		engine:   e,
		location: loc,
		log:      log,
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := decodeBody(r, &room); err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	created, err := h.engine.CreateRoom(r.Context(), sessionFrom(r), &room)
	if err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.engine.GetRoom(r.Context(), sessionFrom(r), ps.ByName("id"))
	if err != nil {
		writeError(h.log, w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.engine.ListRooms(r.Context(), sessionFrom(r))
	if err != nil {
		writeError(h.log, w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch model.RoomUpdate
	if err := decodeBody(r, &patch); err != nil {
		writeError(h.log, w, "Update", err)
		return
	}

	room, err := h.engine.UpdateRoom(r.Context(), sessionFrom(r), ps.ByName("id"), &patch)
	if err != nil {
		writeError(h.log, w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.engine.DeleteRoom(r.Context(), sessionFrom(r), ps.ByName("id")); err != nil {
		writeError(h.log, w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Availability serves ?date=YYYY-MM-DD, defaulting to today.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var date time.Time
	if s := strings.TrimSpace(r.URL.Query().Get("date")); s != "" {
		parsed, err := time.ParseInLocation(dateLayout, s, h.location)
		if err != nil {
			writeError(h.log, w, "Availability", apperrors.InvalidInput("invalid date parameter, expected YYYY-MM-DD: "+s))
			return
		}
		date = parsed
	}

	slots, err := h.engine.RoomAvailability(r.Context(), sessionFrom(r), ps.ByName("id"), date)
	if err != nil {
		writeError(h.log, w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rooms", h.Create)
	router.GET("/api/v1/rooms", h.GetAll)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)
	router.PATCH("/api/v1/rooms/id/:id", h.Update)
	router.DELETE("/api/v1/rooms/id/:id", h.Delete)
	router.GET("/api/v1/rooms/id/:id/availability", h.Availability)
}
