// Package api exposes the ledger over HTTP/JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/sells-group/recovery-cli/internal/ingest"
	"github.com/sells-group/recovery-cli/internal/ledger"
)

// Options configures the HTTP surface.
type Options struct {
	RateLimit      float64
	Burst          int
	CORSOrigins    []string
	MaxUploadBytes int64
	Import         ingest.Options
}

// Server routes requests to a ledger.Service.
type Server struct {
	svc     *ledger.Service
	opts    Options
	limiter *rate.Limiter
}

// New creates a Server. Zero rate settings disable limiting.
func New(svc *ledger.Service, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	s := &Server{svc: svc, opts: opts}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter))
		}
		r.Get("/schema", s.schema)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Post("/", s.addRecord)
			r.Patch("/{id}", s.editRecord)
			r.Delete("/{id}", s.removeRecord)
		})
		r.Post("/import", s.importFiles)
		r.Post("/formulas", s.addFormula)
		r.Post("/recompute", s.recompute)
		r.Get("/summary", s.summary)
		r.Get("/trend", s.trend)
	})

	return r
}
