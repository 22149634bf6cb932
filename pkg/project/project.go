// Package project discovers the source projects of a solution and reads their
// file lists, compiler settings and metadata references from MSBuild files.
package project

import (
	"path/filepath"
	"strings"
)

// Recognized input file extensions.
const (
	ExtSolution    = ".sln"
	ExtProject     = ".csproj"
	ExtSharedItems = ".projitems"
)

// ReferenceKind classifies a metadata reference.
type ReferenceKind string

// Reference kinds.
const (
	ReferenceAssembly ReferenceKind = "assembly"
	ReferencePackage  ReferenceKind = "package"
	ReferenceProject  ReferenceKind = "project"
)

// MetadataReference is one assembly, package or project the project compiles against.
type MetadataReference struct {
	Name     string
	HintPath string
	Version  string
	Kind     ReferenceKind
}

// Settings holds the compiler-level options of a project.
type Settings struct {
	LanguageVersion string
	DefineConstants []string
	Nullable        string
}

// SourceProject is one project of a solution. It is not modified during a build.
type SourceProject struct {
	// Path is the absolute path of the project file.
	Path string
	// Name is the display name used for output directories.
	Name string
	// Files are absolute document paths in discovery order.
	Files      []string
	Settings   Settings
	References []MetadataReference
}

// Dir returns the directory holding the project file.
func (p *SourceProject) Dir() string {
	return filepath.Dir(p.Path)
}

// Matches reports whether selector names this project, by path or by name.
// An empty selector matches every project.
func (p *SourceProject) Matches(selector string) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return true
	}

	if strings.EqualFold(selector, p.Name) {
		return true
	}

	abs, err := filepath.Abs(selector)
	if err != nil {
		return false
	}

	return strings.EqualFold(abs, p.Path) || strings.EqualFold(abs, p.Dir())
}
