package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/modules"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// Artifact file names.
const (
	ScriptFile = "script.cs"
	ThumbFile  = "thumb.png"
)

// Line ending names accepted in Settings.
const (
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

// DefaultDirectoryTemplate places each script in a directory named after its project.
const DefaultDirectoryTemplate = "$(" + options.MacroProjectName + ")"

// DefaultOutputRoot returns the local scripts folder the game reads from.
func DefaultOutputRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}

	return filepath.Join(base, "SpaceEngineers", "IngameScripts", "local")
}

// OutputDir returns the directory a project's artifact is written to.
func (s Settings) OutputDir(proj *project.SourceProject, cfg *options.ProjectConfig) string {
	macros := map[string]string{options.MacroProjectName: proj.Name}

	root := strings.TrimSpace(cfg.OutputPath)
	if root == "" || strings.EqualFold(root, options.AutoOutputPath) {
		root = s.OutputRoot
	}

	if root == "" {
		root = DefaultOutputRoot()
	}

	root = options.ExpandMacros(root, macros)
	if !filepath.IsAbs(root) {
		root = filepath.Join(proj.Dir(), root)
	}

	template := s.DirectoryTemplate
	if strings.TrimSpace(template) == "" {
		template = DefaultDirectoryTemplate
	}

	return filepath.Join(root, options.ExpandMacros(template, macros))
}

// applyLineEnding converts LF text to the configured line ending.
func applyLineEnding(text, ending string) string {
	text = csharp.NormalizeNewlines(text)
	if strings.EqualFold(ending, LineEndingCRLF) {
		return strings.ReplaceAll(text, "\n", "\r\n")
	}

	return text
}

// writeArtifact writes script.cs and copies the project thumbnail next to it.
func (b *Builder) writeArtifact(proj *project.SourceProject, cfg *options.ProjectConfig, script string, dryRun bool) (modules.Artifact, error) {
	dir := b.settings.OutputDir(proj, cfg)
	data := applyLineEnding(script, b.settings.LineEnding)

	artifact := modules.Artifact{
		ProjectName: proj.Name,
		ProjectPath: proj.Path,
		ScriptPath:  filepath.Join(dir, ScriptFile),
		Bytes:       len(data),
		Chars:       utf8.RuneCountInString(script),
		Minified:    cfg.Minify,
		DryRun:      dryRun,
	}

	if dryRun {
		artifact.Script = data

		return artifact, nil
	}

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return artifact, classifyWriteErr(fmt.Errorf("create output directory: %w", err))
	}

	err = os.WriteFile(artifact.ScriptPath, []byte(data), 0o644) //nolint:gosec // read by the game
	if err != nil {
		return artifact, classifyWriteErr(fmt.Errorf("write script: %w", err))
	}

	thumb := filepath.Join(proj.Dir(), ThumbFile)
	if _, statErr := os.Stat(thumb); statErr == nil {
		artifact.ThumbPath = filepath.Join(dir, ThumbFile)

		err = copyFile(thumb, artifact.ThumbPath)
		if err != nil {
			return artifact, classifyWriteErr(fmt.Errorf("copy thumbnail: %w", err))
		}
	}

	return artifact, nil
}

func classifyWriteErr(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrWritePermissionDenied, err)
	}

	return err
}

// copyFile copies src over dst, replacing any existing file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		return errors.Join(fmt.Errorf("copy to %s: %w", dst, err), out.Close())
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return nil
}
