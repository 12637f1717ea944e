package handler

import (
	"encoding/json"
	"net/http"

	"roombook/internal/engine"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
)

// sessionFrom reads the identity headers set by the auth gateway.
func sessionFrom(r *http.Request) engine.Session {
	return engine.Session{
		UserID: r.Header.Get(httputil.HeaderUserID),
		Role:   r.Header.Get(httputil.HeaderUserRole),
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

func writeError(log *logger.Logger, w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
