package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
)

// ActorHeader carries the ID of the acting user, set by the fronting identity proxy
const ActorHeader = "X-Oprisk-Actor"

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	authz         interfaces.Authorizer
	enableMetrics bool
}

type Options func(*Server)

// WithMetrics exposes prometheus metrics at /metrics
func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.enableMetrics = enabled
	}
}

func New(uc *usecase.UseCases, authz interfaces.Authorizer, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		uc:            uc,
		authz:         authz,
		enableMetrics: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	if s.enableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(actorMiddleware(s.authz))

		r.Get("/", s.dashboardHandler)
		r.Get("/export-csv", s.exportCSVHandler)
		r.With(requireAdmin(s.authz)).Post("/export-csv-clear", s.exportAndClearHandler)
		r.With(requireAdmin(s.authz)).Post("/clear-risks", s.clearRisksHandler)

		r.Route("/ai-extract", func(r chi.Router) {
			r.Post("/", s.extractHandler(extractPreview))
			r.With(requireStaff(s.authz)).Post("/save", s.extractHandler(extractDraft))
			r.With(requireStaff(s.authz)).Post("/save-approve", s.extractHandler(extractApprove))
		})

		r.Route("/draft/{id}/edit", func(r chi.Router) {
			r.Use(requireStaff(s.authz))
			r.Get("/", s.getDraftHandler)
			r.Post("/", s.updateDraftHandler)
		})
		r.Get("/drafts", s.listDraftsHandler)
		r.With(requireStaff(s.authz)).Post("/drafts/approve-all", s.approveDraftsHandler)

		r.Get("/official-report", s.officialReportHandler)
		r.Post("/official-report", s.updateExecutiveSummaryHandler)
		r.Get("/official-report.pdf", s.officialReportPDFHandler)

		r.Route("/risks", func(r chi.Router) {
			r.Get("/", s.listRisksHandler)
			r.With(requireStaff(s.authz)).Post("/", s.createRiskHandler)
			r.Get("/{id}", s.getRiskHandler)
			r.With(requireStaff(s.authz)).Put("/{id}", s.updateRiskHandler)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
