package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/domain/record"
	"specialization_alert_bot/internal/domain/user"
)

// maxImportSize bounds uploaded workbooks.
const maxImportSize = 10 << 20

// RecordManager is the record use-case surface exposed over HTTP.
type RecordManager interface {
	Create(ctx context.Context, actor *user.User, in app.RecordInput) (*record.Record, error)
	Update(ctx context.Context, actor *user.User, id int64, in app.RecordInput) (*record.Record, error)
	Delete(ctx context.Context, actor *user.User, id int64) error
	Get(ctx context.Context, id int64) (app.RecordView, error)
	List(ctx context.Context, query, filter string) (*app.Dashboard, error)
	Import(ctx context.Context, actor *user.User, r io.Reader) (app.ImportReport, error)
}

// UserManager authenticates API callers and manages operator accounts.
type UserManager interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	CreateUser(ctx context.Context, actor *user.User, username, password, email string, role user.Role) (*user.User, error)
	ListUsers(ctx context.Context, actor *user.User) ([]*user.User, error)
	UpdateUser(ctx context.Context, actor *user.User, id int64, in app.UserUpdate) (*user.User, error)
	DeleteUser(ctx context.Context, actor *user.User, id int64) error
}

// SettingsProvider reports the effective alert configuration.
type SettingsProvider interface {
	Current(ctx context.Context) (app.Settings, error)
}

// HistoryLister lists recent ledger entries.
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error)
}

type Handler struct {
	checker  app.AlertChecker
	records  RecordManager
	users    UserManager
	history  HistoryLister
	settings SettingsProvider
	gatherer prometheus.Gatherer
	logger   *logrus.Entry
}

func New(
	checker app.AlertChecker,
	records RecordManager,
	users UserManager,
	history HistoryLister,
	settings SettingsProvider,
	gatherer prometheus.Gatherer,
	logger *logrus.Entry,
) *Handler {
	return &Handler{
		checker:  checker,
		records:  records,
		users:    users,
		history:  history,
		settings: settings,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Routes builds the router. Everything under /api requires HTTP basic auth.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.basicAuth)

		r.Post("/check", h.handleRunCheck)

		r.Get("/records", h.handleListRecords)
		r.Post("/records", h.handleCreateRecord)
		r.Post("/records/import", h.handleImportRecords)
		r.Get("/records/{id}", h.handleGetRecord)
		r.Put("/records/{id}", h.handleUpdateRecord)
		r.Delete("/records/{id}", h.handleDeleteRecord)

		r.Get("/notifications", h.handleListNotifications)

		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleCreateUser)
		r.Put("/users/{id}", h.handleUpdateUser)
		r.Delete("/users/{id}", h.handleDeleteUser)

		r.Get("/settings", h.handleSettings)
	})
	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
// WriteTimeout leaves room for a manual check over many records.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
