package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("llm: api key not configured")

const (
	CodeAuth        = "LLM_AUTH"
	CodeRateLimit   = "LLM_RATE_LIMIT"
	CodeUnavailable = "LLM_UNAVAILABLE"
	CodeFailed      = "LLM_FAILED"
	CodeEmpty       = "LLM_EMPTY"
)

type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// classify maps an openai-go error onto a ProviderError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe := &ProviderError{
			Message:    op + " failed",
			StatusCode: apiErr.StatusCode,
			Cause:      err,
		}
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			pe.Code = CodeAuth
		case apiErr.StatusCode == http.StatusTooManyRequests:
			pe.Code = CodeRateLimit
			pe.Retryable = true
		case apiErr.StatusCode >= 500:
			pe.Code = CodeUnavailable
			pe.Retryable = true
		default:
			pe.Code = CodeFailed
		}
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Code: CodeUnavailable, Message: op + " timed out", Retryable: true, Cause: err}
	}
	return &ProviderError{Code: CodeFailed, Message: op + " failed", Cause: err}
}
