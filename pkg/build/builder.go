// Package build orchestrates concurrent script builds: it discovers the
// projects of a solution, runs the merge pipeline for each one in its own
// goroutine, reports progress and writes the resulting artifacts.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/pbmerge/pkg/assembler"
	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// Project outcome labels used in logs and metrics.
const (
	statusBuilt   = "built"
	statusSkipped = "skipped"
	statusFailed  = "failed"
)

// Settings are the tool-level build settings.
type Settings struct {
	// OutputRoot replaces an "auto" or empty project output path.
	// Empty selects DefaultOutputRoot.
	OutputRoot string
	// DirectoryTemplate is expanded per project below the output root.
	DirectoryTemplate string
	// LineEnding is LineEndingLF or LineEndingCRLF.
	LineEnding string
	// ContainerName is the entry container type name.
	ContainerName string
	// DirectivePrefix introduces ordering directives in comments.
	DirectivePrefix string
	// CacheEntries bounds the parse cache.
	CacheEntries int
}

// Discoverer resolves a build input into source projects.
type Discoverer interface {
	Discover(ctx context.Context, input string) ([]*project.SourceProject, error)
}

// OptionsLoader loads the options of a project file.
type OptionsLoader func(projectPath string) (*options.ProjectConfig, error)

// Options control one Build call.
type Options struct {
	// Project selects a single project by name or path. Empty builds all.
	Project string
	// DryRun assembles scripts without writing or publishing them.
	DryRun bool
	// Progress receives the completed fraction in [0,1]. May be nil.
	Progress func(float64)
}

// Skip records a project that produced no artifact without failing.
type Skip struct {
	ProjectName string
	ProjectPath string
	Reason      string
}

// Result summarizes a Build call.
type Result struct {
	BuildID  string
	Projects int
	// Configs holds the options of each successfully built project.
	Configs   []*options.ProjectConfig
	Artifacts []modules.Artifact
	Skipped   []Skip
	Duration  time.Duration
}

// Builder runs builds. One Builder may run several builds in sequence;
// State reports the most recent one.
type Builder struct {
	settings   Settings
	discoverer Discoverer
	loadOpts   OptionsLoader
	content    *csharp.ContentLoader
	assembler  *assembler.Assembler
	registry   *modules.Registry
	policy     parts.WeightPolicy

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.BuildMetrics

	validator assembler.Validator
	state     atomic.Int32
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) { b.tracer = tracer }
}

// WithMetrics sets the build metrics.
func WithMetrics(metrics *observability.BuildMetrics) Option {
	return func(b *Builder) { b.metrics = metrics }
}

// WithRegistry replaces the default module registry.
func WithRegistry(registry *modules.Registry) Option {
	return func(b *Builder) { b.registry = registry }
}

// WithDiscoverer replaces the MSBuild project loader.
func WithDiscoverer(d Discoverer) Option {
	return func(b *Builder) { b.discoverer = d }
}

// WithOptionsLoader replaces the mdk.options loader.
func WithOptionsLoader(load OptionsLoader) Option {
	return func(b *Builder) { b.loadOpts = load }
}

// WithValidator replaces the syntax validator run on merged scripts.
func WithValidator(v assembler.Validator) Option {
	return func(b *Builder) { b.validator = v }
}

// WithWeightPolicy replaces the directive weight policy.
func WithWeightPolicy(policy parts.WeightPolicy) Option {
	return func(b *Builder) { b.policy = policy }
}

// New creates a Builder.
func New(settings Settings, opts ...Option) (*Builder, error) {
	b := &Builder{
		settings: settings,
		loadOpts: options.Load,
		registry: modules.DefaultRegistry(),
		policy:   parts.NewDirectivePolicy(settings.DirectivePrefix),
		logger:   slog.Default(),
		tracer:   nooptrace.NewTracerProvider().Tracer("pbmerge"),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.discoverer == nil {
		b.discoverer = project.NewLoader(b.logger)
	}

	cache, err := csharp.NewAnalysisCache(settings.CacheEntries)
	if err != nil {
		return nil, err
	}

	parser := csharp.NewParser()

	b.content = csharp.NewContentLoader(csharp.NewAnalyzer(parser, settings.ContainerName), cache)
	b.content.ObserveCache(b.metrics.RecordCacheLookup)

	if b.validator == nil {
		b.validator = assembler.NewSyntaxValidator(parser)
	}

	b.assembler = assembler.New(b.validator)

	return b, nil
}

// State returns the state of the most recent build.
func (b *Builder) State() State {
	return State(b.state.Load())
}

func (b *Builder) setState(s State) {
	b.state.Store(int32(s))
}

// Build discovers the projects of input and builds them concurrently.
//
// Every project runs to completion even when a sibling fails; files already
// written by successful projects are kept. Project failures are returned
// joined, each as a *ProjectError, alongside the partial Result.
// ctx carries tracing and logging values only: a build is not cancelled by it.
func (b *Builder) Build(ctx context.Context, input string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: uuid.NewString()}

	ctx, span := b.tracer.Start(ctx, "pbmerge.build", trace.WithAttributes(
		attribute.String("pbmerge.input", input),
		attribute.String("pbmerge.build_id", result.BuildID),
	))
	defer span.End()

	logger := b.logger.With("build_id", result.BuildID)

	b.setState(StateDiscovering)

	projects, err := b.discoverer.Discover(ctx, input)
	if err != nil {
		b.setState(StateFailed)
		b.metrics.RecordBuild(ctx, statusFailed)
		span.SetStatus(codes.Error, "discovery failed")

		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	result.Projects = len(projects)
	logger.InfoContext(ctx, "build started", "input", input, "projects", len(projects))

	b.setState(StateBuilding)

	prog := newProgress(StepsPerProject*len(projects), opts.Progress)
	outcomes := make([]outcome, len(projects))

	var wg sync.WaitGroup

	for idx, proj := range projects {
		wg.Add(1)

		go func() {
			defer wg.Done()

			outcomes[idx] = b.buildProject(ctx, logger, proj, opts, result.BuildID, prog)
		}()
	}

	wg.Wait()
	prog.close()

	var errs []error

	for _, out := range outcomes {
		switch {
		case out.err != nil:
			errs = append(errs, out.err)
		case out.skip != "":
			result.Skipped = append(result.Skipped, Skip{ProjectName: out.name, ProjectPath: out.path, Reason: out.skip})
		default:
			result.Configs = append(result.Configs, out.cfg)
			result.Artifacts = append(result.Artifacts, out.artifact)
		}
	}

	result.Duration = time.Since(start)

	if len(errs) > 0 {
		b.setState(StateFailed)
		b.metrics.RecordBuild(ctx, statusFailed)
		span.SetStatus(codes.Error, "project build failed")
		logger.ErrorContext(ctx, "build failed", "failed", len(errs), "built", len(result.Configs))

		return result, errors.Join(errs...)
	}

	b.setState(StateCompleted)
	b.metrics.RecordBuild(ctx, observability.StatusOK)
	logger.InfoContext(ctx, "build completed",
		"built", len(result.Configs), "skipped", len(result.Skipped), "duration", result.Duration)

	return result, nil
}
