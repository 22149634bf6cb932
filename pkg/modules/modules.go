// Package modules defines the pluggable composer and publisher contracts and a
// registry that resolves module references to concrete implementations.
package modules

import (
	"context"

	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

// Minifier is a two-phase script transformation. PreMinify runs on the
// extracted content before assembly; PostMinify runs on the assembled text.
type Minifier interface {
	PreMinify(ctx context.Context, content *parts.ProjectContent) error
	PostMinify(ctx context.Context, script string) (string, error)
}

// Artifact describes a written script.
type Artifact struct {
	ProjectName string
	ProjectPath string
	BuildID     string
	// ScriptPath is the absolute path of the written script.cs.
	ScriptPath string
	// ThumbPath is the copied thumbnail, empty when the project has none.
	ThumbPath string
	Bytes     int
	Chars     int
	Minified  bool
	// DryRun artifacts hold the script in memory and were not written.
	DryRun bool
	Script string
}

// Publisher is a deployment-time hook run after an artifact is written.
type Publisher interface {
	Publish(ctx context.Context, artifact Artifact) error
}

// Kind distinguishes the two module extension points.
type Kind string

// Module kinds.
const (
	KindComposer  Kind = "composer"
	KindPublisher Kind = "publisher"
)

// Built-in module identifiers.
const (
	NoopMinifierID      = "pbmerge.minifier.none"
	CommentMinifierID   = "pbmerge.minifier.comments"
	LocalPublisherID    = "pbmerge.publisher.local"
	ManifestPublisherID = "pbmerge.publisher.manifest"
)

// BuiltinVersion is the version every built-in module registers under.
const BuiltinVersion = "1.0.0"

// NoopMinifier leaves content and text unchanged.
type NoopMinifier struct{}

// PreMinify does nothing.
func (NoopMinifier) PreMinify(context.Context, *parts.ProjectContent) error { return nil }

// PostMinify returns the script unchanged.
func (NoopMinifier) PostMinify(_ context.Context, script string) (string, error) { return script, nil }

// LocalPublisher accepts artifacts already placed on disk.
type LocalPublisher struct{}

// Publish does nothing.
func (LocalPublisher) Publish(context.Context, Artifact) error { return nil }
