// Package mcp implements a Model Context Protocol server exposing pbmerge
// builds as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "pbmerge"

	// toolCount is the expected number of registered tools.
	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Version is reported as the server implementation version.
	Version string

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Builder runs builds. Nil creates one with default settings.
	Builder *build.Builder

	// Registry lists the available modules. Nil uses the default registry.
	Registry *modules.Registry

	// Discoverer resolves tool inputs into projects. Nil uses a project loader.
	Discoverer build.Discoverer
}

// Server wraps the MCP SDK server with pbmerge tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	mu       sync.RWMutex
	tools    []string
	metrics  *observability.REDMetrics
	tracer   trace.Tracer
	builder    *build.Builder
	registry   *modules.Registry
	discoverer build.Discoverer
}

// NewServer creates a new MCP server with all pbmerge tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	version := deps.Version
	if version == "" {
		version = "dev"
	}

	if deps.Registry == nil {
		deps.Registry = modules.DefaultRegistry()
	}

	if deps.Discoverer == nil {
		deps.Discoverer = project.NewLoader(deps.Logger)
	}

	if deps.Builder == nil {
		builderOpts := []build.Option{build.WithRegistry(deps.Registry)}
		if deps.Logger != nil {
			builderOpts = append(builderOpts, build.WithLogger(deps.Logger))
		}

		builder, err := build.New(build.Settings{}, builderOpts...)
		if err != nil {
			return nil, fmt.Errorf("create builder: %w", err)
		}

		deps.Builder = builder
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		},
		opts,
	)

	srv := &Server{
		inner:      inner,
		tools:      make([]string, 0, toolCount),
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		builder:    deps.Builder,
		registry:   deps.Registry,
		discoverer: deps.Discoverer,
	}

	srv.registerTools()

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all pbmerge MCP tools to the server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameBuild,
		Description: buildToolDescription,
	}, withMetrics(s.metrics, ToolNameBuild, withTracing(s.tracer, ToolNameBuild, s.handleBuild)))

	s.trackTool(ToolNameBuild)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameOptions,
		Description: optionsToolDescription,
	}, withMetrics(s.metrics, ToolNameOptions, withTracing(s.tracer, ToolNameOptions, s.handleOptions)))

	s.trackTool(ToolNameOptions)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameModules,
		Description: modulesToolDescription,
	}, withMetrics(s.metrics, ToolNameModules, withTracing(s.tracer, ToolNameModules, s.handleModules)))

	s.trackTool(ToolNameModules)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	buildToolDescription = "Merge the C# programmable-block projects of a solution or project " +
		"into single script.cs files. Accepts an absolute path and optional project selector and dry_run flag. " +
		"Returns a build report."

	optionsToolDescription = "Read the mdk.options build options of every project in a solution, " +
		"project file or directory."

	modulesToolDescription = "List the registered minifier and publisher modules with their versions."
)
