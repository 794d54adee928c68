package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/config"
	"github.com/mathrouter/mathrouter/internal/guardrails"
	"github.com/mathrouter/mathrouter/internal/knowledge"
	"github.com/mathrouter/mathrouter/internal/llm"
	"github.com/mathrouter/mathrouter/internal/metrics"
	"github.com/mathrouter/mathrouter/internal/search"
)

type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int) []knowledge.Entry
}

type SolutionSearcher interface {
	SearchMathSolution(ctx context.Context, query, depth string) search.Response
}

// Deps are the collaborators of a Router. Search and LLM may be nil, which
// marks the corresponding tier as unavailable.
type Deps struct {
	InputGuard  guardrails.Validator
	OutputGuard guardrails.Validator
	Knowledge   KnowledgeSearcher
	Search      SolutionSearcher
	LLM         llm.Provider
	Metrics     *metrics.Metrics
}

type Options struct {
	// Threshold is the exclusive lower bound for accepting a knowledge match.
	Threshold         float64
	GenerationFailure string
	OutputGuard       string
	SearchDepth       string

	KnowledgeTimeout  time.Duration
	SearchTimeout     time.Duration
	GenerationTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Threshold:         0.70,
		GenerationFailure: config.GenerationFailureFallthrough,
		OutputGuard:       config.OutputGuardAdvise,
		SearchDepth:       search.DepthBasic,
		KnowledgeTimeout:  5 * time.Second,
		SearchTimeout:     15 * time.Second,
		GenerationTimeout: 30 * time.Second,
	}
}

// OptionsFromConfig maps the router-related config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Threshold:         cfg.Knowledge.Threshold,
		GenerationFailure: cfg.Router.GenerationFailure,
		OutputGuard:       cfg.Router.OutputGuard,
		SearchDepth:       cfg.Router.SearchDepth,
		KnowledgeTimeout:  cfg.Timeouts.Knowledge,
		SearchTimeout:     cfg.Timeouts.Search,
		GenerationTimeout: cfg.Timeouts.Generation,
	}
}

// errOutputRejected marks a generated answer dropped by the output guard in enforce mode.
var errOutputRejected = errors.New("output guardrail rejected answer")

type Router struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Router {
	def := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.GenerationFailure == "" {
		opts.GenerationFailure = def.GenerationFailure
	}
	if opts.OutputGuard == "" {
		opts.OutputGuard = def.OutputGuard
	}
	if opts.SearchDepth == "" {
		opts.SearchDepth = def.SearchDepth
	}
	if opts.KnowledgeTimeout <= 0 {
		opts.KnowledgeTimeout = def.KnowledgeTimeout
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = def.SearchTimeout
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = def.GenerationTimeout
	}
	if deps.InputGuard == nil {
		deps.InputGuard = guardrails.NewInputGuard()
	}
	if deps.OutputGuard == nil {
		deps.OutputGuard = guardrails.NewOutputGuard()
	}
	return &Router{deps: deps, opts: opts}
}

// Route walks the tiers in order and returns the first answer. It never fails:
// the fallback tier always produces a result.
func (r *Router) Route(ctx context.Context, query string) *apimodels.RoutingResult {
	slog.Info("Routing query", "query", truncate(query, 80))
	start := time.Now()

	result := r.route(ctx, query)

	r.deps.Metrics.ObserveRoute(result.Source)
	r.deps.Metrics.ObserveStage("route", time.Since(start))
	slog.Info("Query routed", "source", result.Source, "success", result.Success, "duration", time.Since(start))
	return result
}

func (r *Router) route(ctx context.Context, query string) *apimodels.RoutingResult {
	if outcome := r.deps.InputGuard.Validate(query); !outcome.Accepted {
		slog.Info("Query rejected by input guardrail", "reason", outcome.Reason)
		return &apimodels.RoutingResult{
			Success:     false,
			Source:      apimodels.SourceGuardrail,
			Message:     outcome.Reason,
			RoutingPath: pathRejected,
		}
	}

	if entry, ok := r.knowledgeStage(ctx, query); ok {
		confidence := round2(entry.Score)
		return &apimodels.RoutingResult{
			Success:     true,
			Source:      apimodels.SourceKnowledgeBase,
			Solution:    formatKnowledgeSolution(entry),
			Confidence:  &confidence,
			RoutingPath: pathKnowledgeBase,
		}
	}

	if result, ok := r.searchStage(ctx, query); ok {
		return result
	}

	return r.directStage(ctx, query)
}

func (r *Router) knowledgeStage(ctx context.Context, query string) (entry knowledge.Entry, ok bool) {
	if r.deps.Knowledge == nil {
		return knowledge.Entry{}, false
	}
	defer r.observe("knowledge", time.Now())
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Knowledge lookup panicked", "panic", rec)
			entry, ok = knowledge.Entry{}, false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.opts.KnowledgeTimeout)
	defer cancel()

	results := r.deps.Knowledge.Search(ctx, query, 1)
	if len(results) == 0 {
		slog.Debug("Knowledge base miss", "reason", "no results")
		return knowledge.Entry{}, false
	}
	best := results[0]
	if best.Score > r.opts.Threshold {
		slog.Info("Knowledge base hit", "score", best.Score, "question", best.Question)
		return best, true
	}
	slog.Debug("Knowledge base miss", "score", best.Score, "threshold", r.opts.Threshold)
	return knowledge.Entry{}, false
}

func (r *Router) searchStage(ctx context.Context, query string) (*apimodels.RoutingResult, bool) {
	if r.deps.Search == nil {
		return nil, false
	}

	resp, err := r.callSearch(ctx, query)
	if err != nil {
		slog.Warn("Search failed, falling through", "error", err)
		return nil, false
	}
	if resp.Error != "" {
		slog.Warn("Search unavailable, falling through", "error", resp.Error)
		return nil, false
	}
	if !resp.Found || len(resp.Results) == 0 {
		slog.Info("Search returned no results")
		return nil, false
	}

	references := append([]apimodels.SearchDocument(nil), firstN(resp.Results, maxContextSources)...)
	result := &apimodels.RoutingResult{
		Success:     true,
		Source:      apimodels.SourceWebSearch,
		References:  references,
		RoutingPath: pathSearchTemplate,
	}

	if r.deps.LLM != nil {
		answer, check, err := r.generate(ctx, query, extractContext(resp.Results))
		switch {
		case err == nil:
			result.Solution = answer
			result.OutputCheck = check
			result.RoutingPath = pathSearchLLM
			return result, true
		case r.inlineFailure(err):
			result.Solution = "Error generating solution: " + err.Error()
			result.RoutingPath = pathSearchLLM
			return result, true
		default:
			slog.Warn("Generation failed, using search excerpts", "error", err)
		}
	}

	result.Solution = formatWebSearchSolution(query, resp.Results)
	return result, true
}

func (r *Router) directStage(ctx context.Context, query string) *apimodels.RoutingResult {
	path := pathFallback
	if r.deps.LLM != nil {
		answer, check, err := r.generate(ctx, query, DirectContext)
		switch {
		case err == nil:
			return &apimodels.RoutingResult{
				Success:     true,
				Source:      apimodels.SourceLLMDirect,
				Solution:    answer,
				RoutingPath: pathLLMDirect,
				OutputCheck: check,
			}
		case r.inlineFailure(err):
			return &apimodels.RoutingResult{
				Success:     true,
				Source:      apimodels.SourceLLMDirect,
				Solution:    "Error generating solution: " + err.Error(),
				RoutingPath: pathLLMDirect,
			}
		default:
			slog.Warn("Direct generation failed, using fallback resources", "error", err)
			path = pathFallbackFailed
		}
	}

	return &apimodels.RoutingResult{
		Success:     true,
		Source:      apimodels.SourceFallback,
		Solution:    formatFallbackSolution(query),
		RoutingPath: path,
	}
}

// inlineFailure reports whether a generation error should be returned as the
// answer text instead of falling through. Output guard rejections always fall through.
func (r *Router) inlineFailure(err error) bool {
	return r.opts.GenerationFailure == config.GenerationFailureInline && !errors.Is(err, errOutputRejected)
}

func (r *Router) callSearch(ctx context.Context, query string) (resp search.Response, err error) {
	defer r.observe("search", time.Now())
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("search panicked: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	slog.Info("Routing through search tools", "query", truncate(query, 80))
	return r.deps.Search.SearchMathSolution(ctx, query, r.opts.SearchDepth), nil
}

// generate asks the LLM for an answer and runs the output guard over it.
func (r *Router) generate(ctx context.Context, question, searchContext string) (answer string, check *apimodels.ValidationOutcome, err error) {
	defer r.observe("generation", time.Now())
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generation panicked: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.opts.GenerationTimeout)
	defer cancel()

	resp, err := r.deps.LLM.Complete(ctx, SystemPrompt, userPrompt(question, searchContext))
	if err != nil {
		return "", nil, err
	}
	answer = strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", nil, &llm.ProviderError{Code: llm.CodeEmpty, Message: "model returned no content"}
	}
	slog.Debug("Generated answer", "tokens", resp.Usage.TotalTokens)

	outcome := r.deps.OutputGuard.Validate(answer)
	if !outcome.Accepted {
		slog.Warn("Output guardrail flagged answer", "reason", outcome.Reason, "mode", r.opts.OutputGuard)
		if r.opts.OutputGuard == config.OutputGuardEnforce {
			return "", nil, fmt.Errorf("%w: %s", errOutputRejected, outcome.Reason)
		}
	}
	return answer, &outcome, nil
}

func (r *Router) observe(stage string, start time.Time) {
	r.deps.Metrics.ObserveStage(stage, time.Since(start))
}
