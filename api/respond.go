package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fast-food-fast/logger"
	"fast-food-fast/services"
	"fast-food-fast/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError is the only place domain errors become status codes.
// Store failures are logged; clients only see a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.RequestID(r.Context())
	status := http.StatusInternalServerError
	message := err.Error()

	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		message = vErr.Reason
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	default:
		message = "internal server error"
		s.log.Error("request_failed", requestID, "unhandled error", err,
			requestAttrs(r)...)
	}

	writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestID,
	})
}
