// Package http serves the classroom dashboard and its JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"classroom/internal/log"
	"classroom/internal/metrics"
	"classroom/internal/middleware/ratelimit"
	"classroom/internal/middleware/security"
	"classroom/internal/services"
	appweb "classroom/web"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	OfficerToken       string
	RateLimitPerMinute int
	Store              Pinger
	Logger             *log.Logger
}

type Server struct {
	http.Server
	svc          *services.LedgerService
	store        Pinger
	officerToken string
	templates    *template.Template
	limiter      *ratelimit.Limiter
	logger       *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:          svc,
		store:        opts.Store,
		officerToken: opts.OfficerToken,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		logger:       logger.WithComponent(log.ComponentHTTP),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(clientIP, s.onRateLimit))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}
	r.Get("/", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/role", s.handleRole)
		r.Get("/overview", s.handleOverview)

		r.Get("/settings", s.handleGetSettings)
		r.Get("/students", s.handleListStudents)
		r.Get("/expenses", s.handleListExpenses)
		r.Get("/wishlist", s.handleListWishlist)
		r.Get("/announcements", s.handleListAnnouncements)
		r.Get("/agenda", s.handleListAgenda)

		r.Group(func(r chi.Router) {
			r.Use(s.requireOfficer)

			r.Put("/settings", s.handleSaveSettings)
			r.Put("/settings/collection-days/{date}", s.handleSetCollectionDay)
			r.Put("/settings/quotas/{date}", s.handleSetQuota)
			r.Delete("/settings/quotas/{date}", s.handleClearQuota)

			r.Post("/students", s.handleAddStudent)
			r.Post("/students/import", s.handleImportRoster)
			r.Post("/students/import-image", s.handleImportRosterImage)
			r.Delete("/students/{id}", s.handleDeleteStudent)
			r.Put("/students/{id}/payments/{date}", s.handleRecordPayment)
			r.Post("/students/{id}/payments/{date}/toggle", s.handleTogglePayment)
			r.Post("/ledger/{date}/mark", s.handleBulkMark)

			r.Post("/expenses", s.handleRecordExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Post("/wishlist", s.handleAddPlanned)
			r.Delete("/wishlist/{id}", s.handleDeletePlanned)
			r.Post("/wishlist/{id}/convert", s.handleConvertPlanned)

			r.Post("/announcements", s.handleAddAnnouncement)
			r.Delete("/announcements/{id}", s.handleDeleteAnnouncement)
			r.Post("/agenda", s.handleAddAgendaItem)
			r.Delete("/agenda/{id}", s.handleDeleteAgendaItem)
		})
	})

	return r
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
