package build

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// Sentinel errors classifying where a build failed.
var (
	// ErrDiscovery indicates the input could not be resolved into projects. It aborts the run.
	ErrDiscovery = errors.New("project discovery failed")
	// ErrConfigLoad indicates unusable project options or module references.
	ErrConfigLoad = errors.New("project options could not be loaded")
	// ErrContentLoad indicates a document could not be read or analyzed.
	ErrContentLoad = errors.New("project content could not be loaded")
	// ErrPreMinify indicates the composer failed before assembly.
	ErrPreMinify = errors.New("pre-minify failed")
	// ErrAssembly indicates the merged script could not be produced or validated.
	ErrAssembly = errors.New("script assembly failed")
	// ErrPostMinify indicates the composer failed after assembly.
	ErrPostMinify = errors.New("post-minify failed")
	// ErrWrite indicates the artifact could not be written.
	ErrWrite = errors.New("artifact write failed")
	// ErrWritePermissionDenied indicates the output location is not writable.
	ErrWritePermissionDenied = errors.New("permission denied writing artifact")
	// ErrPublish indicates the publisher rejected the artifact.
	ErrPublish = errors.New("artifact publish failed")
)

// Stage names a step of the per-project pipeline.
type Stage string

// Pipeline stages.
const (
	StageConfig     Stage = "config"
	StageContent    Stage = "content"
	StagePreMinify  Stage = "pre-minify"
	StageAssembly   Stage = "assembly"
	StagePostMinify Stage = "post-minify"
	StageWrite      Stage = "write"
	StagePublish    Stage = "publish"
)

// sentinel returns the error class of a stage.
func (s Stage) sentinel() error {
	switch s {
	case StageConfig:
		return ErrConfigLoad
	case StageContent:
		return ErrContentLoad
	case StagePreMinify:
		return ErrPreMinify
	case StageAssembly:
		return ErrAssembly
	case StagePostMinify:
		return ErrPostMinify
	case StageWrite:
		return ErrWrite
	case StagePublish:
		return ErrPublish
	default:
		return nil
	}
}

// ProjectError identifies the project and stage where a build failed.
// errors.Is matches both the stage sentinel and the underlying cause.
type ProjectError struct {
	ProjectName string
	ProjectPath string
	Stage       Stage
	Err         error
}

func newProjectError(proj *project.SourceProject, stage Stage, err error) *ProjectError {
	if sentinel := stage.sentinel(); sentinel != nil && !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}

	return &ProjectError{ProjectName: proj.Name, ProjectPath: proj.Path, Stage: stage, Err: err}
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.ProjectPath, e.Stage, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ProjectError) Unwrap() error { return e.Err }
