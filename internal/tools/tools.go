// Package tools is the local tool protocol layer. Capability providers publish
// tools on an in-process MCP server; callers reach them through a Registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Failure codes carried in Result.Metadata["error"].
const (
	ErrorUnknownTool   = "unknown_tool"
	ErrorNotConfigured = "api_not_configured"
	ErrorSearchFailed  = "search_failed"
)

type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Result is built fresh for every call.
type Result struct {
	Success bool
	// Content is the decoded success payload as json.RawMessage, or the
	// failure message as a string.
	Content  any
	Metadata map[string]any
}

// Decode unmarshals a successful payload into v.
func (r Result) Decode(v any) error {
	if !r.Success {
		return fmt.Errorf("tool call failed: %v", r.Content)
	}
	raw, ok := r.Content.(json.RawMessage)
	if !ok {
		return fmt.Errorf("unexpected tool content type %T", r.Content)
	}
	return json.Unmarshal(raw, v)
}

// ErrorCode returns the failure code, or "" for successful results.
func (r Result) ErrorCode() string {
	code, _ := r.Metadata["error"].(string)
	return code
}

type Registry interface {
	ListTools(ctx context.Context) ([]Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) Result
}

// Provider groups the tools of one capability.
type Provider interface {
	Name() string
	Tools() []server.ServerTool
}

type successEnvelope struct {
	Content  any            `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type failureEnvelope struct {
	Error    string         `json:"error"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SuccessResult encodes payload as the JSON text content of a tool result.
func SuccessResult(payload any, metadata map[string]any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(successEnvelope{Content: payload, Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("encode tool payload: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ErrorResult encodes a categorized failure. The result has IsError set.
func ErrorResult(code, message string, metadata map[string]any) *mcp.CallToolResult {
	data, err := json.Marshal(failureEnvelope{Error: code, Message: message, Metadata: metadata})
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q,"message":%q}`, code, message))
	}
	return mcp.NewToolResultError(string(data))
}

// decodeResult turns an MCP tool result back into a Result.
func decodeResult(res *mcp.CallToolResult) Result {
	text := ""
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			text = tc.Text
			break
		}
	}

	if res.IsError {
		var env failureEnvelope
		if err := json.Unmarshal([]byte(text), &env); err != nil || env.Error == "" {
			return failure(ErrorSearchFailed, text, nil)
		}
		return failure(env.Error, env.Message, env.Metadata)
	}

	var env struct {
		Content  json.RawMessage `json:"content"`
		Metadata map[string]any  `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return failure(ErrorSearchFailed, fmt.Sprintf("decode tool payload: %v", err), nil)
	}
	if env.Metadata == nil {
		env.Metadata = map[string]any{}
	}
	return Result{Success: true, Content: env.Content, Metadata: env.Metadata}
}

func failure(code, message string, metadata map[string]any) Result {
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["error"] = code
	return Result{Success: false, Content: message, Metadata: meta}
}
