package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/domain/user"
)

const defaultHistoryLimit = 50

type userView struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      user.Role  `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toUserView(u *user.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, LastLogin: u.LastLogin}
}

type notificationView struct {
	ID             int64                `json:"id"`
	RecordID       int64                `json:"record_id"`
	RecordName     string               `json:"record_name"`
	Specialization string               `json:"specialization"`
	ExpiryDate     string               `json:"expiry_date"`
	DaysBefore     int                  `json:"days_before"`
	Channel        notification.Channel `json:"channel"`
	ProviderRef    string               `json:"provider_ref,omitempty"`
	SentAt         time.Time            `json:"sent_at"`
}

type createUserRequest struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Email    string    `json:"email"`
	Role     user.Role `json:"role"`
}

func (h *Handler) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if !actor.Role.CanManage() {
		writeError(w, http.StatusForbidden, app.ErrNotAuthorized.Error())
		return
	}
	res, err := h.checker.RunCheck(r.Context())
	if err != nil {
		h.fail(w, r, err, "Manual alert check failed")
		return
	}
	h.logger.WithField("by", actor.Username).WithField("run_id", res.RunID).Info("Manual alert check triggered over HTTP")
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := q.Get("filter")
	if filter != "" && filter != app.FilterUpcoming && filter != app.FilterExpired {
		writeError(w, http.StatusBadRequest, "filter must be upcoming or expired")
		return
	}
	d, err := h.records.List(r.Context(), q.Get("q"), filter)
	if err != nil {
		h.fail(w, r, err, "Failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in app.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.records.Create(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in app.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.records.Update(r.Context(), actorFrom(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, err, "Failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.records.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		h.fail(w, r, err, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportRecords accepts a multipart upload with the workbook in field "file".
func (h *Handler) handleImportRecords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form with an .xlsx file")
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	report, err := h.records.Import(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		h.fail(w, r, err, "Failed to import records")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	entries, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "Failed to list notifications")
		return
	}
	out := make([]notificationView, 0, len(entries))
	for _, e := range entries {
		out = append(out, notificationView{
			ID:             e.ID,
			RecordID:       e.Key.RecordID,
			RecordName:     e.RecordName,
			Specialization: e.Key.Specialization,
			ExpiryDate:     e.Key.ExpiryDate,
			DaysBefore:     e.Key.Threshold,
			Channel:        e.Key.Channel,
			ProviderRef:    e.ProviderRef,
			SentAt:         e.SentAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err, "Failed to list users")
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = user.RoleUser
	}
	u, err := h.users.CreateUser(r.Context(), actorFrom(r.Context()), req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		h.fail(w, r, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(u))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in app.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.users.UpdateUser(r.Context(), actorFrom(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, err, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), actorFrom(r.Context()), id); err != nil {
		h.fail(w, r, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Current(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
