// Package report renders build results and script diffs for the terminal
// and for machine consumption.
package report

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
)

// Project status labels.
const (
	StatusBuilt   = "built"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Report is the serializable summary of one build.
type Report struct {
	BuildID    string    `json:"build_id"   yaml:"build_id"`
	Input      string    `json:"input"      yaml:"input"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Built      int       `json:"built"      yaml:"built"`
	Skipped    int       `json:"skipped"    yaml:"skipped"`
	Failed     int       `json:"failed"     yaml:"failed"`
	DryRun     bool      `json:"dry_run"    yaml:"dry_run"`
	Projects   []Project `json:"projects"   yaml:"projects"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Project is one row of a Report.
type Project struct {
	Name     string `json:"name"               yaml:"name"`
	Path     string `json:"path"               yaml:"path"`
	Status   string `json:"status"             yaml:"status"`
	Script   string `json:"script,omitempty"   yaml:"script,omitempty"`
	Bytes    int    `json:"bytes"              yaml:"bytes"`
	Chars    int    `json:"chars"              yaml:"chars"`
	Minified bool   `json:"minified"           yaml:"minified"`
	Stage    string `json:"stage,omitempty"    yaml:"stage,omitempty"`
	Reason   string `json:"reason,omitempty"   yaml:"reason,omitempty"`
}

// FromResult summarizes a build. result may be nil when discovery failed.
func FromResult(input string, result *build.Result, err error, dryRun bool) Report {
	rep := Report{Input: input, DryRun: dryRun}

	if err != nil {
		rep.Error = err.Error()
	}

	if result == nil {
		return rep
	}

	rep.BuildID = result.BuildID
	rep.DurationMs = result.Duration.Milliseconds()

	for _, art := range result.Artifacts {
		rep.Projects = append(rep.Projects, Project{
			Name:     art.ProjectName,
			Path:     art.ProjectPath,
			Status:   StatusBuilt,
			Script:   art.ScriptPath,
			Bytes:    art.Bytes,
			Chars:    art.Chars,
			Minified: art.Minified,
		})
	}

	for _, skip := range result.Skipped {
		rep.Projects = append(rep.Projects, Project{
			Name:   displayName(skip.ProjectName, skip.ProjectPath),
			Path:   skip.ProjectPath,
			Status: StatusSkipped,
			Reason: skip.Reason,
		})
	}

	for _, projErr := range ProjectErrors(err) {
		rep.Projects = append(rep.Projects, Project{
			Name:   displayName(projErr.ProjectName, projErr.ProjectPath),
			Path:   projErr.ProjectPath,
			Status: StatusFailed,
			Stage:  string(projErr.Stage),
			Reason: projErr.Err.Error(),
		})
	}

	slices.SortStableFunc(rep.Projects, func(a, b Project) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	for _, p := range rep.Projects {
		switch p.Status {
		case StatusBuilt:
			rep.Built++
		case StatusSkipped:
			rep.Skipped++
		case StatusFailed:
			rep.Failed++
		}
	}

	return rep
}

// Duration returns the build duration.
func (r Report) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// ProjectErrors extracts the per-project failures from a joined build error.
func ProjectErrors(err error) []*build.ProjectError {
	if err == nil {
		return nil
	}

	var out []*build.ProjectError

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ProjectErrors(e)...)
		}

		return out
	}

	var projErr *build.ProjectError
	if errors.As(err, &projErr) {
		out = append(out, projErr)
	}

	return out
}

// displayName falls back to the project file name when no display name is known.
func displayName(name, path string) string {
	if name != "" {
		return name
	}

	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
