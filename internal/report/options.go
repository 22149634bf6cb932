package report

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
	"github.com/Sumatoshi-tech/pbmerge/pkg/options"
)

// Options is the serializable view of a project's options.
type Options struct {
	Name           string   `json:"name,omitempty"            yaml:"name,omitempty"`
	ProjectPath    string   `json:"project_path"              yaml:"project_path"`
	OptionsPath    string   `json:"options_path"              yaml:"options_path"`
	Valid          bool     `json:"valid"                     yaml:"valid"`
	Version        string   `json:"version,omitempty"         yaml:"version,omitempty"`
	OutputPath     string   `json:"output_path,omitempty"     yaml:"output_path,omitempty"`
	Minify         bool     `json:"minify"                    yaml:"minify"`
	InstallPath    string   `json:"install_path,omitempty"    yaml:"install_path,omitempty"`
	GameBinPath    string   `json:"game_bin_path,omitempty"   yaml:"game_bin_path,omitempty"`
	IgnoredFolders []string `json:"ignored_folders,omitempty" yaml:"ignored_folders,omitempty"`
	IgnoredFiles   []string `json:"ignored_files,omitempty"   yaml:"ignored_files,omitempty"`
	Composer       string   `json:"composer,omitempty"        yaml:"composer,omitempty"`
	Publisher      string   `json:"publisher,omitempty"       yaml:"publisher,omitempty"`
	Error          string   `json:"error,omitempty"           yaml:"error,omitempty"`
}

// FromOptions converts a project config for display.
func FromOptions(cfg *options.ProjectConfig) Options {
	view := Options{
		ProjectPath:    cfg.ProjectPath,
		OptionsPath:    cfg.OptionsPath,
		Valid:          cfg.IsValid,
		Version:        cfg.Version,
		OutputPath:     cfg.OutputPath,
		Minify:         cfg.Minify,
		InstallPath:    cfg.InstallPath,
		IgnoredFolders: cfg.IgnoredFolders,
		IgnoredFiles:   cfg.IgnoredFiles,
		Composer:       cfg.Composer.String(),
		Publisher:      cfg.Publisher.String(),
	}

	if cfg.UseManualGameBinPath {
		view.GameBinPath = cfg.GameBinPath
	}

	return view
}

// CollectOptions discovers the projects behind input, which may be a solution,
// a project file or a directory, and returns the options view of each in
// discovery order. An unreadable options file is reported on its view.
func CollectOptions(
	ctx context.Context, discoverer build.Discoverer, load build.OptionsLoader, input string,
) ([]Options, error) {
	projects, err := discoverer.Discover(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", build.ErrDiscovery, err)
	}

	views := make([]Options, 0, len(projects))

	for _, proj := range projects {
		cfg, loadErr := load(proj.Path)
		if cfg == nil {
			cfg = &options.ProjectConfig{ProjectPath: proj.Path, OptionsPath: options.PathFor(proj.Path)}
		}

		view := FromOptions(cfg)
		view.Name = proj.Name

		if loadErr != nil {
			view.Error = loadErr.Error()
		}

		views = append(views, view)
	}

	return views, nil
}
