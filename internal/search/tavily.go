package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/config"
)

// ErrNotConfigured is returned by backends that have no credential.
var ErrNotConfigured = errors.New("search: api key not configured")

const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

type Request struct {
	Query          string
	Depth          string
	MaxResults     int
	IncludeDomains []string
}

type Backend interface {
	Configured() bool
	Search(ctx context.Context, req Request) ([]apimodels.SearchDocument, error)
}

// BackendError reports a non-2xx answer from the search API.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("search backend returned status %d: %s", e.StatusCode, e.Body)
}

// TavilyBackend calls the Tavily REST search API.
type TavilyBackend struct {
	client *resty.Client
	apiKey string
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func NewTavilyBackend(cfg config.SearchConfig, timeout time.Duration) *TavilyBackend {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)

	return &TavilyBackend{client: client, apiKey: cfg.APIKey}
}

func (b *TavilyBackend) Configured() bool {
	return strings.TrimSpace(b.apiKey) != ""
}

func (b *TavilyBackend) Search(ctx context.Context, req Request) ([]apimodels.SearchDocument, error) {
	if !b.Configured() {
		return nil, ErrNotConfigured
	}

	var out tavilyResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{
			Query:          req.Query,
			SearchDepth:    req.Depth,
			MaxResults:     req.MaxResults,
			IncludeDomains: req.IncludeDomains,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, &BackendError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}

	docs := make([]apimodels.SearchDocument, 0, len(out.Results))
	for _, r := range out.Results {
		docs = append(docs, apimodels.SearchDocument{
			Title:   r.Title,
			Content: r.Content,
			URL:     r.URL,
		})
	}
	return docs, nil
}
