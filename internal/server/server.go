package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/config"
	"github.com/mathrouter/mathrouter/internal/feedback"
	"github.com/mathrouter/mathrouter/internal/metrics"
	"github.com/mathrouter/mathrouter/internal/search"
)

type Router interface {
	Route(ctx context.Context, query string) *apimodels.RoutingResult
}

type ConceptSearcher interface {
	SearchMathConcept(ctx context.Context, concept string) search.Response
}

type Deps struct {
	Router Router
	// Concepts may be nil when search is unavailable.
	Concepts      ConceptSearcher
	Feedback      feedback.Store
	KnowledgeSize func() int
	Metrics       *metrics.Metrics
	Version       string

	// Reported by the health endpoint.
	LLMConfigured    bool
	LLMProvider      string
	SearchConfigured bool
}

type Server struct {
	cfg      config.ServerConfig
	deps     Deps
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
}

func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Router == nil {
		return nil, errors.New("server: router is required")
	}
	if deps.Feedback == nil {
		deps.Feedback = feedback.NewMemoryStore()
	}
	if deps.KnowledgeSize == nil {
		deps.KnowledgeSize = func() int { return 0 }
	}
	if deps.Version == "" {
		deps.Version = "1.0.0"
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		router:   chi.NewRouter(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 55 * time.Second
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
	s.router.Use(middleware.Timeout(timeout))

	var rateLimit func(http.Handler) http.Handler
	if s.cfg.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(s.cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("CONFIG_INVALID: server.rate_limit=%q: %w", s.cfg.RateLimit, err)
		}
		rateLimit = stdlib.NewMiddleware(limiter.New(memory.NewStore(), rate)).Handler
	}

	s.router.Get("/", s.handleRoot)
	s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/solve", s.handleSolve)
		r.Post("/concept", s.handleConcept)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/feedback/stats", s.handleFeedbackStats)
		r.Get("/health", s.handleHealth)
	})
	return nil
}

// Handler exposes the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// Create a channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "address", s.server.Addr)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("Starting shutdown", "signal", sig)

	case <-ctx.Done():
		slog.Info("Starting shutdown", "reason", ctx.Err())
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
