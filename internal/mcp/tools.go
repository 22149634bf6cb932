package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/pbmerge/internal/report"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
)

// Tool name constants.
const (
	ToolNameBuild   = "pbmerge_build"
	ToolNameOptions = "pbmerge_options"
	ToolNameModules = "pbmerge_modules"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates a relative path parameter.
	ErrPathNotAbsolute = errors.New("path must be an absolute path")
	// ErrPathNotFound indicates the path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
)

// BuildInput is the input schema for the pbmerge_build tool.
type BuildInput struct {
	Path    string `json:"path"              jsonschema:"absolute path to a .sln, a .csproj or a directory holding one"`
	Project string `json:"project,omitempty" jsonschema:"optional project name or path to build alone"`
	DryRun  bool   `json:"dry_run,omitempty" jsonschema:"assemble scripts without writing them"`
}

// OptionsInput is the input schema for the pbmerge_options tool.
type OptionsInput struct {
	Path string `json:"path" jsonschema:"absolute path to a .sln, a .csproj or a directory holding one"`
}

// ModulesInput is the input schema for the pbmerge_modules tool.
type ModulesInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validatePath checks that path is absolute and exists.
func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, path)
	}

	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	return nil
}

func (s *Server) handleBuild(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input BuildInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validatePath(input.Path)
	if err != nil {
		return errorResult(err)
	}

	result, buildErr := s.builder.Build(ctx, input.Path, build.Options{
		Project: input.Project,
		DryRun:  input.DryRun,
	})
	if result == nil {
		return errorResult(buildErr)
	}

	res, out, err := jsonResult(report.FromResult(input.Path, result, buildErr, input.DryRun))
	if buildErr != nil && res != nil {
		res.IsError = true
	}

	return res, out, err
}

func (s *Server) handleOptions(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input OptionsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validatePath(input.Path)
	if err != nil {
		return errorResult(err)
	}

	views, err := report.CollectOptions(ctx, s.discoverer, options.Load, input.Path)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(views)
}

// moduleView is the JSON form of a registered module.
type moduleView struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Kind    string `json:"kind"`
}

func (s *Server) handleModules(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ ModulesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	infos := s.registry.List()
	views := make([]moduleView, 0, len(infos))

	for _, info := range infos {
		views = append(views, moduleView{ID: info.ID, Version: info.Version, Kind: string(info.Kind)})
	}

	return jsonResult(views)
}
