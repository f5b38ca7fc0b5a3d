// Package api exposes the decision platform over HTTP. Handlers are
// stateless: validate the payload, make one store or registry call (plus
// a job enqueue for the async endpoints), and write JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/auth"
	"github.com/temporal-nexus/nexus-api/internal/jobs"
	"github.com/temporal-nexus/nexus-api/internal/model"
	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

// Intelligence is the slice of the model gateway the synchronous
// endpoints call directly. Async work goes through the job runner.
type Intelligence interface {
	Analyze(ctx context.Context, dt model.DecisionType, userInput string, additional map[string]any) (map[string]any, error)
	CollectiveInsights(ctx context.Context, dt model.DecisionType, userProfile map[string]any) (map[string]any, error)
}

// Server holds the handler dependencies.
type Server struct {
	store    store.Store
	registry jobs.Registry
	runner   *jobs.Runner
	gw       Intelligence
	auth     *auth.Service
	schemas  *validate.Registry

	corsOrigins           []string
	timeTravelMaxParallel int
}

// Options configures a Server.
type Options struct {
	Store    store.Store
	Registry jobs.Registry
	Runner   *jobs.Runner
	Gateway  Intelligence
	Auth     *auth.Service
	Schemas  *validate.Registry

	CORSAllowedOrigins    []string
	TimeTravelMaxParallel int
}

// NewServer builds a Server from its dependencies.
func NewServer(opts Options) *Server {
	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	parallel := opts.TimeTravelMaxParallel
	if parallel <= 0 {
		parallel = 4
	}
	return &Server{
		store:                 opts.Store,
		registry:              opts.Registry,
		runner:                opts.Runner,
		gw:                    opts.Gateway,
		auth:                  opts.Auth,
		schemas:               opts.Schemas,
		corsOrigins:           origins,
		timeTravelMaxParallel: parallel,
	}
}

// Router assembles the chi route tree with logging, recovery, and CORS
// middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user/profile", func(r chi.Router) {
			r.Post("/", s.handleUpsertProfile)
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
		})

		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Route("/decisions", func(r chi.Router) {
			r.Post("/", s.handleCreateDecision)
			r.Get("/", s.handleListDecisions)
			r.Get("/{id}", s.handleGetDecision)
			r.Put("/{id}", s.handleUpdateDecision)
			r.Delete("/{id}", s.handleDeleteDecision)
		})

		r.Post("/simulations", s.handleEnqueueSimulation)
		r.Get("/simulations/{jobId}", s.handleGetJob)
		r.Post("/timing-analysis", s.handleEnqueueTimingAnalysis)
		r.Get("/timing-analysis/{jobId}", s.handleGetJob)

		r.Get("/collective-insights", s.handleListInsights)
		r.Post("/collective-insights", s.handleCreateInsight)

		r.Get("/quantum-cloud/{decisionId}", s.handleQuantumCloud)
		r.Post("/time-travel-test", s.handleTimeTravelTest)

		r.Get("/analytics/summary", s.handleAnalyticsSummary)
		r.Get("/analytics/history", s.handleAnalyticsHistory)
		r.Get("/analytics/export", s.handleAnalyticsExport)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("health check store ping failed", zap.Error(err))
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{"status": status})
}

// requestLogger logs one line per request with method, path, status, and
// elapsed time.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// recoverer converts handler panics into 500 responses instead of
// tearing down the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
