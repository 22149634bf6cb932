package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// Skip reasons.
const (
	reasonNoOptions   = "no valid options file"
	reasonNotSelected = "not selected"
	reasonNoContent   = "no content"
)

// outcome is the result of one project pipeline. Exactly one of err, skip
// or artifact is meaningful.
type outcome struct {
	name     string
	path     string
	cfg      *options.ProjectConfig
	artifact modules.Artifact
	skip     string
	err      error
}

// buildProject runs the pipeline of one project. Stages run strictly in order.
func (b *Builder) buildProject(
	ctx context.Context, logger *slog.Logger, proj *project.SourceProject,
	opts Options, buildID string, prog *progress,
) outcome {
	start := time.Now()

	ctx, span := b.tracer.Start(ctx, "pbmerge.project", trace.WithAttributes(
		attribute.String("pbmerge.project", proj.Name),
		attribute.String("pbmerge.project.path", proj.Path),
	))
	defer span.End()

	logger = logger.With("project", proj.Name)

	steps := 0
	advance := func() {
		steps++
		prog.step()
	}

	out := b.runPipeline(ctx, logger, proj, opts, buildID, advance)

	// Skipped and failed projects still account for their share of progress.
	for ; steps < StepsPerProject; steps++ {
		prog.step()
	}

	status := statusBuilt

	switch {
	case out.err != nil:
		status = statusFailed

		span.RecordError(out.err)
		span.SetStatus(codes.Error, "project failed")
		logger.ErrorContext(ctx, "project failed", "error", out.err)
	case out.skip != "":
		status = statusSkipped

		logger.InfoContext(ctx, "project skipped", "reason", out.skip)
	default:
		logger.InfoContext(ctx, "project built",
			"script", out.artifact.ScriptPath, "bytes", out.artifact.Bytes, "dry_run", out.artifact.DryRun)
	}

	b.metrics.RecordProject(ctx, status, time.Since(start), out.artifact.Bytes)

	return out
}

func (b *Builder) runPipeline(
	ctx context.Context, logger *slog.Logger, proj *project.SourceProject,
	opts Options, buildID string, advance func(),
) outcome {
	out := outcome{name: proj.Name, path: proj.Path}

	cfg, err := b.loadOpts(proj.Path)
	if err != nil {
		// Unreadable options mark the project invalid rather than failing it.
		logger.WarnContext(ctx, "ignoring project options", "error", fmt.Errorf("%w: %w", ErrConfigLoad, err))

		out.skip = reasonNoOptions

		return out
	}

	if !cfg.IsValid {
		out.skip = reasonNoOptions

		return out
	}

	if !proj.Matches(opts.Project) {
		out.skip = reasonNotSelected

		return out
	}

	out.cfg = cfg

	minifier, publisher, err := b.resolveModules(cfg)
	if err != nil {
		out.err = newProjectError(proj, StageConfig, err)

		return out
	}

	var content *parts.ProjectContent

	err = b.stage(ctx, proj, StageContent, func(ctx context.Context) error {
		var loadErr error

		content, loadErr = b.content.Load(ctx, csharp.ContentRequest{
			ProjectDir: proj.Dir(),
			Files:      proj.Files,
			Ignored:    cfg.IsIgnored,
			Policy:     b.policy,
		})

		return loadErr
	})
	if err != nil {
		out.err = err

		return out
	}

	if content.IsEmpty() {
		out.skip = reasonNoContent

		return out
	}

	advance()

	script, err := b.generate(ctx, proj, cfg, minifier, content)
	if err != nil {
		out.err = err

		return out
	}

	advance()

	err = b.stage(ctx, proj, StageWrite, func(context.Context) error {
		var writeErr error

		out.artifact, writeErr = b.writeArtifact(proj, cfg, script, opts.DryRun)

		return writeErr
	})
	if err != nil {
		out.err = err

		return out
	}

	out.artifact.BuildID = buildID

	advance()

	if opts.DryRun {
		return out
	}

	out.err = b.stage(ctx, proj, StagePublish, func(ctx context.Context) error {
		return publisher.Publish(ctx, out.artifact)
	})

	return out
}

// generate sorts, minifies and assembles the content, then prepends the readme.
func (b *Builder) generate(
	ctx context.Context, proj *project.SourceProject, cfg *options.ProjectConfig,
	minifier modules.Minifier, content *parts.ProjectContent,
) (string, error) {
	content.Sort()

	if cfg.Minify {
		err := b.stage(ctx, proj, StagePreMinify, func(ctx context.Context) error {
			return minifier.PreMinify(ctx, content)
		})
		if err != nil {
			return "", err
		}
	}

	var script string

	err := b.stage(ctx, proj, StageAssembly, func(ctx context.Context) error {
		var asmErr error

		script, asmErr = b.assembler.Assemble(ctx, proj, content)

		return asmErr
	})
	if err != nil {
		return "", err
	}

	if cfg.Minify {
		err = b.stage(ctx, proj, StagePostMinify, func(ctx context.Context) error {
			var minErr error

			script, minErr = minifier.PostMinify(ctx, script)

			return minErr
		})
		if err != nil {
			return "", err
		}
	}

	return content.Readme + script, nil
}

// resolveModules picks the composer and publisher for a project. Minify with
// no composer configured uses the no-op minifier; no publisher means local.
func (b *Builder) resolveModules(cfg *options.ProjectConfig) (modules.Minifier, modules.Publisher, error) {
	var (
		minifier  modules.Minifier = modules.NoopMinifier{}
		publisher modules.Publisher = modules.LocalPublisher{}
		err       error
	)

	if cfg.Minify && !cfg.Composer.IsZero() {
		minifier, err = b.registry.ResolveMinifier(cfg.Composer)
		if err != nil {
			return nil, nil, fmt.Errorf("composer: %w", err)
		}
	}

	if !cfg.Publisher.IsZero() {
		publisher, err = b.registry.ResolvePublisher(cfg.Publisher)
		if err != nil {
			return nil, nil, fmt.Errorf("publisher: %w", err)
		}
	}

	return minifier, publisher, nil
}

// stage runs fn in a child span and wraps its failure as a *ProjectError.
func (b *Builder) stage(ctx context.Context, proj *project.SourceProject, stage Stage, fn func(context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, "pbmerge.stage."+string(stage))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage)+" failed")

		return newProjectError(proj, stage, err)
	}

	return nil
}
