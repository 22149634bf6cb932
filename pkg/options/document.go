package options

import (
	"encoding/xml"
	"path/filepath"
	"strings"
)

type document struct {
	XMLName     xml.Name       `xml:"mdk"`
	Version     string         `xml:"version,attr,omitempty"`
	GameBinPath gameBinElement `xml:"gamebinpath"`
	InstallPath string         `xml:"installpath"`
	OutputPath  string         `xml:"outputpath"`
	Minify      string         `xml:"minify"`
	Ignore      ignoreElement  `xml:"ignore"`
	Modules     modulesElement `xml:"modules"`
}

type gameBinElement struct {
	Enabled string `xml:"enabled,attr"`
	Path    string `xml:",chardata"`
}

type ignoreElement struct {
	Folders []string `xml:"folder"`
	Files   []string `xml:"file"`
}

type modulesElement struct {
	Composer  *moduleElement `xml:"composer,omitempty"`
	Publisher *moduleElement `xml:"publisher,omitempty"`
}

type moduleElement struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr,omitempty"`
}

func (d *document) apply(cfg *ProjectConfig) {
	dir := cfg.ProjectDir()

	cfg.Version = strings.TrimSpace(d.Version)
	cfg.GameBinPath = strings.TrimSpace(d.GameBinPath.Path)
	cfg.UseManualGameBinPath = parseFlag(d.GameBinPath.Enabled)
	cfg.InstallPath = strings.TrimSpace(d.InstallPath)
	cfg.OutputPath = strings.TrimSpace(d.OutputPath)
	cfg.Minify = parseFlag(d.Minify)
	cfg.IgnoredFolders = absPaths(dir, d.Ignore.Folders)
	cfg.IgnoredFiles = absPaths(dir, d.Ignore.Files)

	if d.Modules.Composer != nil {
		cfg.Composer = d.Modules.Composer.ref()
	}

	if d.Modules.Publisher != nil {
		cfg.Publisher = d.Modules.Publisher.ref()
	}
}

func (m *moduleElement) ref() ModuleRef {
	return ModuleRef{ID: strings.TrimSpace(m.ID), Version: strings.TrimSpace(m.Version)}
}

func newDocument(cfg *ProjectConfig) *document {
	dir := cfg.ProjectDir()

	doc := &document{
		Version: CurrentVersion,
		GameBinPath: gameBinElement{
			Enabled: formatFlag(cfg.UseManualGameBinPath),
			Path:    cfg.GameBinPath,
		},
		InstallPath: cfg.InstallPath,
		OutputPath:  cfg.OutputPath,
		Minify:      formatFlag(cfg.Minify),
		Ignore: ignoreElement{
			Folders: relPaths(dir, cfg.IgnoredFolders),
			Files:   relPaths(dir, cfg.IgnoredFiles),
		},
	}

	if !cfg.Composer.IsZero() {
		doc.Modules.Composer = &moduleElement{ID: cfg.Composer.ID, Version: cfg.Composer.Version}
	}

	if !cfg.Publisher.IsZero() {
		doc.Modules.Publisher = &moduleElement{ID: cfg.Publisher.ID, Version: cfg.Publisher.Version}
	}

	return doc
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "on", "1":
		return true
	default:
		return false
	}
}

func formatFlag(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}

// absPaths resolves option paths against the project directory. The options
// file is shared with Windows tooling, so backslashes separate segments.
func absPaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}

		out = append(out, filepath.Clean(p))
	}

	return out
}

func relPaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		rel, err := filepath.Rel(dir, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = p
		}

		out = append(out, filepath.ToSlash(rel))
	}

	return out
}
