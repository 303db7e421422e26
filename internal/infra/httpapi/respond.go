package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"specialization_alert_bot/internal/app"
	idb "specialization_alert_bot/internal/infra/database"
	"specialization_alert_bot/internal/infra/importer"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps service errors to HTTP status codes. Unknown errors are 500
// and their text is not exposed.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrNotAuthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, idb.ErrRecordNotFound), errors.Is(err, idb.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, idb.ErrDuplicateUsername):
		return http.StatusConflict, err.Error()
	case errors.Is(err, app.ErrInvalidExpiryDate),
		errors.Is(err, app.ErrMissingField),
		errors.Is(err, app.ErrInvalidRole),
		errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrSelfDelete),
		errors.Is(err, importer.ErrMissingColumn):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, text := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error(msg)
	}
	writeError(w, status, text)
}
