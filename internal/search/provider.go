package search

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/tools"
)

const (
	ToolSearchSolution = "search_math_solution"
	ToolSearchConcept  = "search_math_concept"
)

var (
	solutionDomains = []string{
		"khanacademy.org",
		"mathway.com",
		"symbolab.com",
		"math.stackexchange.com",
		"brilliant.org",
		"wolframalpha.com",
	}
	conceptDomains = []string{
		"khanacademy.org",
		"math.stackexchange.com",
		"brilliant.org",
		"mathworld.wolfram.com",
		"wikipedia.org",
	}
)

type solutionPayload struct {
	Query         string                     `json:"query"`
	EnhancedQuery string                     `json:"enhanced_query"`
	Results       []apimodels.SearchDocument `json:"results"`
	Found         bool                       `json:"found"`
}

type conceptPayload struct {
	Concept       string                     `json:"concept"`
	EnhancedQuery string                     `json:"enhanced_query"`
	Results       []apimodels.SearchDocument `json:"results"`
	Found         bool                       `json:"found"`
}

// Provider publishes the math search tools over a Backend.
type Provider struct {
	backend Backend
}

func NewProvider(backend Backend) *Provider {
	return &Provider{backend: backend}
}

func (p *Provider) Name() string { return "math-search" }

func (p *Provider) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolSearchSolution,
				mcp.WithDescription("Search the web for mathematical solutions, explanations, and step-by-step guides"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("The mathematical question or problem to search for"),
				),
				mcp.WithString("search_depth",
					mcp.Description("How thorough the search should be"),
					mcp.Enum(DepthBasic, DepthAdvanced),
					mcp.DefaultString(DepthBasic),
				),
			),
			Handler: p.handleSolution,
		},
		{
			Tool: mcp.NewTool(ToolSearchConcept,
				mcp.WithDescription("Search for explanations of mathematical concepts, theorems, and definitions"),
				mcp.WithString("concept",
					mcp.Required(),
					mcp.Description("The mathematical concept to explain"),
				),
			),
			Handler: p.handleConcept,
		},
	}
}

func (p *Provider) handleSolution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	depth := req.GetString("search_depth", DepthBasic)
	if depth != DepthAdvanced {
		depth = DepthBasic
	}

	if !p.backend.Configured() {
		return tools.ErrorResult(tools.ErrorNotConfigured, "Search API not configured", map[string]any{"query": query}), nil
	}

	enhanced := fmt.Sprintf("how to solve %s step by step mathematics", query)
	docs, err := p.backend.Search(ctx, Request{
		Query:          enhanced,
		Depth:          depth,
		MaxResults:     5,
		IncludeDomains: solutionDomains,
	})
	if err != nil {
		return tools.ErrorResult(tools.ErrorSearchFailed, err.Error(), map[string]any{"query": query}), nil
	}
	if docs == nil {
		docs = []apimodels.SearchDocument{}
	}

	return tools.SuccessResult(solutionPayload{
		Query:         query,
		EnhancedQuery: enhanced,
		Results:       docs,
		Found:         len(docs) > 0,
	}, map[string]any{
		"search_depth": depth,
		"num_results":  len(docs),
	})
}

func (p *Provider) handleConcept(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	concept := req.GetString("concept", "")

	if !p.backend.Configured() {
		return tools.ErrorResult(tools.ErrorNotConfigured, "Search API not configured", map[string]any{"concept": concept}), nil
	}

	enhanced := fmt.Sprintf("explain %s mathematics definition theorem", concept)
	docs, err := p.backend.Search(ctx, Request{
		Query:          enhanced,
		Depth:          DepthAdvanced,
		MaxResults:     3,
		IncludeDomains: conceptDomains,
	})
	if err != nil {
		return tools.ErrorResult(tools.ErrorSearchFailed, err.Error(), map[string]any{"concept": concept}), nil
	}
	if docs == nil {
		docs = []apimodels.SearchDocument{}
	}

	return tools.SuccessResult(conceptPayload{
		Concept:       concept,
		EnhancedQuery: enhanced,
		Results:       docs,
		Found:         len(docs) > 0,
	}, map[string]any{
		"num_results": len(docs),
	})
}
