package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathrouter/mathrouter/internal/config"
	"github.com/mathrouter/mathrouter/internal/feedback"
	"github.com/mathrouter/mathrouter/internal/guardrails"
	"github.com/mathrouter/mathrouter/internal/knowledge"
	"github.com/mathrouter/mathrouter/internal/llm"
	"github.com/mathrouter/mathrouter/internal/metrics"
	"github.com/mathrouter/mathrouter/internal/router"
	"github.com/mathrouter/mathrouter/internal/search"
	"github.com/mathrouter/mathrouter/internal/server"
	"github.com/mathrouter/mathrouter/internal/tools"
)

const indexTimeout = 2 * time.Minute

// app holds every long-lived component built from one Config.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	knowledge *knowledge.Lookup
	registry  *tools.MCPRegistry
	search    *search.Client
	llm       *llm.OpenAI
	feedback  feedback.Store
	router    *router.Router
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	a.knowledge = knowledge.NewLookup(newEmbedder(cfg.Embedding))
	entries, err := knowledge.LoadCorpus(cfg.Knowledge.CorpusPath)
	if err != nil {
		slog.Warn("Knowledge base unavailable", "path", cfg.Knowledge.CorpusPath, "error", err)
	} else {
		indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
		err = a.knowledge.Index(indexCtx, entries)
		cancel()
		if err != nil {
			slog.Warn("Knowledge base indexing failed", "error", err)
		} else {
			slog.Info("Knowledge base ready", "entries", a.knowledge.Size())
		}
	}

	backend := search.NewTavilyBackend(cfg.Search, cfg.Timeouts.Search)
	if !backend.Configured() {
		slog.Warn("Search API key not configured; web search will be skipped")
	}
	registry, err := tools.NewRegistry(ctx,
		[]tools.Provider{search.NewProvider(backend)},
		tools.WithServerInfo("math-search-server", Version),
		tools.WithCallObserver(a.metrics.ObserveToolCall),
	)
	if err != nil {
		slog.Warn("Search tools unavailable", "error", err)
	} else {
		a.registry = registry
		a.search = search.NewClient(ctx, registry)
	}

	provider, err := llm.NewOpenAI(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Warn("LLM not configured - using fallback mode")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("create LLM provider: %w", err)
	default:
		a.llm = provider
		slog.Info("LLM configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	store, err := feedback.Open(ctx, cfg.Feedback)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.feedback = store

	// Only non-nil collaborators are assigned so the router sees a nil
	// interface, not a typed nil, for missing tiers.
	deps := router.Deps{
		InputGuard:  guardrails.NewInputGuard(),
		OutputGuard: guardrails.NewOutputGuard(),
		Knowledge:   a.knowledge,
		Metrics:     a.metrics,
	}
	if a.search != nil {
		deps.Search = a.search
	}
	if a.llm != nil {
		deps.LLM = a.llm
	}
	a.router = router.New(deps, router.OptionsFromConfig(cfg))
	return a, nil
}

// newEmbedder prefers the hosted embedding model and falls back to local hashing.
func newEmbedder(cfg config.EmbeddingConfig) knowledge.Embedder {
	if cfg.Provider == config.EmbeddingProviderOpenAI {
		e, err := llm.NewEmbedder(cfg)
		if err == nil {
			slog.Info("Using hosted embeddings", "model", cfg.Model)
			return e
		}
		slog.Warn("Hosted embeddings unavailable, using local embedder", "error", err)
	}
	return knowledge.NewHashEmbedder(cfg.Dimensions)
}

func (a *app) serverDeps() server.Deps {
	deps := server.Deps{
		Router:           a.router,
		Feedback:         a.feedback,
		KnowledgeSize:    a.knowledge.Size,
		Metrics:          a.metrics,
		Version:          Version,
		LLMConfigured:    a.llm != nil,
		LLMProvider:      a.cfg.LLM.Provider,
		SearchConfigured: a.cfg.Search.Configured(),
	}
	if a.search != nil {
		deps.Concepts = a.search
	}
	return deps
}

func (a *app) Close() {
	if a.feedback != nil {
		if err := a.feedback.Close(); err != nil {
			slog.Warn("Closing feedback store", "error", err)
		}
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			slog.Warn("Closing tool registry", "error", err)
		}
	}
}
