package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/engine"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type ReservationHandler struct {
	engine *engine.Engine
	log    *logger.Logger
}

func NewReservationHandler(e *engine.Engine, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		engine: e,
		log:    log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft model.Reservation
	if err := decodeBody(r, &draft); err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	created, err := h.engine.CreateReservation(r.Context(), sessionFrom(r), &draft)
	if err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.engine.GetReservation(r.Context(), sessionFrom(r), ps.ByName("id"))
	if err != nil {
		writeError(h.log, w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll supports ?scope=upcoming|past|all&room_id=&owner_id=&limit=&offset=.
func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		writeError(h.log, w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.ReservationFilter{
		RoomID:  strings.TrimSpace(query.Get("room_id")),
		OwnerID: strings.TrimSpace(query.Get("owner_id")),
		Scope:   model.ReservationScope(strings.ToLower(strings.TrimSpace(query.Get("scope")))),
		Limit:   limit,
		Offset:  offset,
	}

	reservations, total, err := h.engine.ListReservations(r.Context(), sessionFrom(r), filter)
	if err != nil {
		writeError(h.log, w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch model.ReservationUpdate
	if err := decodeBody(r, &patch); err != nil {
		writeError(h.log, w, "Update", err)
		return
	}

	updated, err := h.engine.UpdateReservation(r.Context(), sessionFrom(r), ps.ByName("id"), &patch)
	if err != nil {
		writeError(h.log, w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.engine.DeleteReservation(r.Context(), sessionFrom(r), ps.ByName("id")); err != nil {
		writeError(h.log, w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Update)
	router.DELETE("/api/v1/reservations/id/:id", h.Delete)
}
