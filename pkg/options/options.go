// Package options reads and writes the per-project build options stored in
// the mdk/mdk.options sidecar file.
package options

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sidecar file location relative to the project directory.
const (
	Dir  = "mdk"
	File = "mdk.options"
)

// CurrentVersion is written into the version attribute on save.
const CurrentVersion = "1.3"

// AutoOutputPath selects the tool's default output root.
const AutoOutputPath = "auto"

// Sentinel errors for options loading and validation.
var (
	// ErrMalformed indicates an options file that could not be parsed.
	ErrMalformed = errors.New("malformed options file")
	// ErrMissingProjectPath indicates a config not bound to a project.
	ErrMissingProjectPath = errors.New("project path is required")
	// ErrMissingOutputPath indicates an empty output path.
	ErrMissingOutputPath = errors.New("output path is required")
	// ErrMissingInstallPath indicates an empty install path.
	ErrMissingInstallPath = errors.New("install path is required")
	// ErrMissingGameBinPath indicates a manual game binary path that is empty.
	ErrMissingGameBinPath = errors.New("game binary path is required when the manual override is enabled")
	// ErrMissingModuleID indicates a module reference with a version but no identifier.
	ErrMissingModuleID = errors.New("module id is required")
)

// ModuleRef references a pluggable module by identifier and version constraint.
type ModuleRef struct {
	ID      string
	Version string
}

// IsZero reports whether no module is referenced.
func (m ModuleRef) IsZero() bool {
	return strings.TrimSpace(m.ID) == ""
}

// String formats the reference as "id@version".
func (m ModuleRef) String() string {
	if m.Version == "" {
		return m.ID
	}

	return m.ID + "@" + m.Version
}

// ProjectConfig holds the build options of one project.
// The build pipeline only reads it.
type ProjectConfig struct {
	ProjectPath string
	OptionsPath string
	Version     string

	OutputPath           string
	Minify               bool
	GameBinPath          string
	UseManualGameBinPath bool
	InstallPath          string

	// IgnoredFolders and IgnoredFiles are absolute paths.
	IgnoredFolders []string
	IgnoredFiles   []string

	Composer  ModuleRef
	Publisher ModuleRef

	// IsValid is true only when the options file was found and parsed.
	IsValid bool
}

// PathFor returns the options file path for a project file.
func PathFor(projectPath string) string {
	return filepath.Join(filepath.Dir(projectPath), Dir, File)
}

// ProjectDir returns the directory holding the project file.
func (c *ProjectConfig) ProjectDir() string {
	return filepath.Dir(c.ProjectPath)
}

// Load reads the options of the project at projectPath.
//
// A missing file yields an invalid config and no error. A file that cannot be
// read or parsed yields an invalid config and an error wrapping ErrMalformed
// or the I/O failure; callers treat both as "skip this project".
func Load(projectPath string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{
		ProjectPath: projectPath,
		OptionsPath: PathFor(projectPath),
	}

	data, err := os.ReadFile(cfg.OptionsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", cfg.OptionsPath, err)
	}

	var doc document

	err = xml.Unmarshal(data, &doc)
	if err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrMalformed, cfg.OptionsPath, err)
	}

	doc.apply(cfg)
	cfg.IsValid = true

	return cfg, nil
}

// Validate checks the fields required for saving and returns the first error found.
func (c *ProjectConfig) Validate() error {
	if strings.TrimSpace(c.ProjectPath) == "" {
		return ErrMissingProjectPath
	}

	if strings.TrimSpace(c.OutputPath) == "" {
		return ErrMissingOutputPath
	}

	if strings.TrimSpace(c.InstallPath) == "" {
		return ErrMissingInstallPath
	}

	if c.UseManualGameBinPath && strings.TrimSpace(c.GameBinPath) == "" {
		return ErrMissingGameBinPath
	}

	for _, ref := range []ModuleRef{c.Composer, c.Publisher} {
		if ref.IsZero() && strings.TrimSpace(ref.Version) != "" {
			return ErrMissingModuleID
		}
	}

	return nil
}

// Save validates the config and writes it to its options file.
func Save(cfg *ProjectConfig) error {
	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate options: %w", err)
	}

	path := cfg.OptionsPath
	if path == "" {
		path = PathFor(cfg.ProjectPath)
	}

	data, err := xml.MarshalIndent(newDocument(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create options directory: %w", err)
	}

	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')

	err = os.WriteFile(path, out, 0o644) //nolint:gosec // options are shared with the IDE
	if err != nil {
		return fmt.Errorf("write options: %w", err)
	}

	return nil
}

// Default returns a valid config with the defaults written by "pbmerge init".
func Default(projectPath, installPath string) *ProjectConfig {
	return &ProjectConfig{
		ProjectPath: projectPath,
		OptionsPath: PathFor(projectPath),
		Version:     CurrentVersion,
		OutputPath:  AutoOutputPath,
		InstallPath: installPath,
		IgnoredFolders: []string{
			filepath.Join(filepath.Dir(projectPath), "obj"),
			filepath.Join(filepath.Dir(projectPath), "bin"),
		},
		IsValid: true,
	}
}
