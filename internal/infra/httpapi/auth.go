package httpapi

import (
	"context"
	"errors"
	"net/http"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/user"
)

type ctxKey int

const actorKey ctxKey = iota

func actorFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(actorKey).(*user.User)
	return u
}

func (h *Handler) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}
		u, err := h.users.Authenticate(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, app.ErrInvalidCredentials) {
				h.logger.WithError(err).Error("Authentication lookup failed")
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			h.logger.WithField("username", username).Warn("Rejected API credentials")
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, u)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="alertbot", charset="UTF-8"`)
	writeError(w, http.StatusUnauthorized, "authentication required")
}
