package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/tools"
)

type Response struct {
	Found   bool                       `json:"found"`
	Results []apimodels.SearchDocument `json:"results"`
	Error   string                     `json:"error,omitempty"`
}

// Client is the caller-side view of the search tools.
type Client struct {
	registry tools.Registry
}

// NewClient lists the available tools once so misconfiguration shows up at startup.
func NewClient(ctx context.Context, registry tools.Registry) *Client {
	descriptors, err := registry.ListTools(ctx)
	if err != nil {
		slog.Warn("Could not list search tools", "error", err)
	} else {
		names := make([]string, len(descriptors))
		for i, d := range descriptors {
			names[i] = d.Name
		}
		slog.Info("Search tools available", "tools", names)
	}
	return &Client{registry: registry}
}

func (c *Client) SearchMathSolution(ctx context.Context, query, depth string) Response {
	if depth == "" {
		depth = DepthBasic
	}
	res := c.registry.CallTool(ctx, ToolSearchSolution, map[string]any{
		"query":        query,
		"search_depth": depth,
	})
	return toResponse(res)
}

func (c *Client) SearchMathConcept(ctx context.Context, concept string) Response {
	res := c.registry.CallTool(ctx, ToolSearchConcept, map[string]any{
		"concept": concept,
	})
	return toResponse(res)
}

func toResponse(res tools.Result) Response {
	if !res.Success {
		return Response{
			Found:   false,
			Results: []apimodels.SearchDocument{},
			Error:   fmt.Sprint(res.Content),
		}
	}

	var out Response
	if err := res.Decode(&out); err != nil {
		return Response{
			Found:   false,
			Results: []apimodels.SearchDocument{},
			Error:   err.Error(),
		}
	}
	if out.Results == nil {
		out.Results = []apimodels.SearchDocument{}
	}
	out.Found = out.Found && len(out.Results) > 0
	return out
}
