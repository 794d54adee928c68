package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CallObserver is notified after every call with outcome "success" or the failure code.
type CallObserver func(tool, outcome string, elapsed time.Duration)

type RegistryOption func(*registryOptions)

type registryOptions struct {
	name     string
	version  string
	observer CallObserver
}

func WithServerInfo(name, version string) RegistryOption {
	return func(o *registryOptions) {
		o.name = name
		o.version = version
	}
}

func WithCallObserver(fn CallObserver) RegistryOption {
	return func(o *registryOptions) { o.observer = fn }
}

// MCPRegistry serves provider tools from an in-process MCP server and calls
// them through a connected client. It is read-only after construction.
type MCPRegistry struct {
	server   *server.MCPServer
	client   *client.Client
	owners   map[string]string
	observer CallObserver
}

// NewRegistry registers every provider tool and initializes the client session.
// Duplicate tool names are rejected.
func NewRegistry(ctx context.Context, providers []Provider, opts ...RegistryOption) (*MCPRegistry, error) {
	options := registryOptions{name: "math-search-server", version: "1.0.0"}
	for _, opt := range opts {
		opt(&options)
	}

	srv := server.NewMCPServer(options.name, options.version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	owners := make(map[string]string)
	for _, p := range providers {
		for _, t := range p.Tools() {
			if owner, dup := owners[t.Tool.Name]; dup {
				return nil, fmt.Errorf("tool %q already registered by provider %q", t.Tool.Name, owner)
			}
			owners[t.Tool.Name] = p.Name()
			srv.AddTool(t.Tool, t.Handler)
			slog.Debug("Registered tool", "tool", t.Tool.Name, "provider", p.Name())
		}
	}

	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start in-process client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    options.name + "-client",
		Version: options.version,
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize tool session: %w", err)
	}

	return &MCPRegistry{
		server:   srv,
		client:   c,
		owners:   owners,
		observer: options.observer,
	}, nil
}

// ListTools returns descriptors sorted by name.
func (r *MCPRegistry) ListTools(ctx context.Context) ([]Descriptor, error) {
	res, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		params := map[string]any{
			"type":       t.InputSchema.Type,
			"properties": t.InputSchema.Properties,
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}
		descriptors = append(descriptors, Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors, nil
}

// CallTool never returns an error; every failure is folded into the Result.
func (r *MCPRegistry) CallTool(ctx context.Context, name string, args map[string]any) Result {
	start := time.Now()
	result := r.call(ctx, name, args)

	outcome := "success"
	if !result.Success {
		outcome = result.ErrorCode()
		slog.Warn("Tool call failed", "tool", name, "error", outcome, "message", result.Content)
	} else {
		slog.Debug("Tool call succeeded", "tool", name, "duration", time.Since(start))
	}
	if r.observer != nil {
		r.observer(name, outcome, time.Since(start))
	}
	return result
}

func (r *MCPRegistry) call(ctx context.Context, name string, args map[string]any) Result {
	if _, ok := r.owners[name]; !ok {
		return failure(ErrorUnknownTool, "Unknown tool: "+name, nil)
	}

	res, err := r.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return failure(ErrorSearchFailed, err.Error(), nil)
	}
	return decodeResult(res)
}

func (r *MCPRegistry) Close() error {
	return r.client.Close()
}
