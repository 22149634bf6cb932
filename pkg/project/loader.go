package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Sentinel errors for project discovery.
var (
	// ErrNoProject indicates an input directory without a solution or project file.
	ErrNoProject = errors.New("no solution or project file found")
	// ErrUnsupportedInput indicates an input file that is neither a solution nor a project.
	ErrUnsupportedInput = errors.New("unsupported input: expected .sln, .csproj or a directory")
	// ErrMalformedProject indicates a project file that could not be parsed.
	ErrMalformedProject = errors.New("malformed project file")
)

// skippedDirs are never searched for documents.
var skippedDirs = []string{"bin", "obj"}

var solutionProjectPattern = regexp.MustCompile(
	`(?m)^Project\("\{[0-9A-Fa-f-]+\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"`)

// Loader reads solutions and projects from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger selects slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{logger: logger}
}

// Discover resolves input (a solution, a project, or a directory holding one)
// into its source projects.
func (l *Loader) Discover(ctx context.Context, input string) ([]*SourceProject, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", input, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		abs, err = findInput(abs)
		if err != nil {
			return nil, err
		}
	}

	var paths []string

	switch strings.ToLower(filepath.Ext(abs)) {
	case ExtSolution:
		paths, err = ParseSolution(abs)
		if err != nil {
			return nil, err
		}
	case ExtProject:
		paths = []string{abs}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, abs)
	}

	projects := make([]*SourceProject, 0, len(paths))

	for _, path := range paths {
		proj, loadErr := l.LoadProject(ctx, path)
		if loadErr != nil {
			return nil, loadErr
		}

		projects = append(projects, proj)
	}

	l.logger.DebugContext(ctx, "discovered projects", "input", abs, "count", len(projects))

	return projects, nil
}

// findInput picks the first solution in dir, or else its first project file.
func findInput(dir string) (string, error) {
	for _, ext := range []string{ExtSolution, ExtProject} {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return "", fmt.Errorf("search %s: %w", dir, err)
		}

		if len(matches) > 0 {
			slices.Sort(matches)

			return matches[0], nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrNoProject, dir)
}

// ParseSolution returns the absolute paths of the C# projects listed in a solution file.
func ParseSolution(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool)

	var paths []string

	for _, m := range solutionProjectPattern.FindAllStringSubmatch(string(data), -1) {
		if !strings.EqualFold(filepath.Ext(m[2]), ExtProject) {
			continue
		}

		proj := resolveItemPath(dir, m[2])
		if seen[proj] {
			continue
		}

		seen[proj] = true
		paths = append(paths, proj)
	}

	return paths, nil
}

// LoadProject reads one project file.
func (l *Loader) LoadProject(ctx context.Context, path string) (*SourceProject, error) {
	doc, err := readMSBuild(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	proj := &SourceProject{
		Path:       path,
		Name:       doc.property(func(g propertyGroup) string { return g.AssemblyName }),
		Settings:   doc.settings(),
		References: doc.references(dir),
	}

	if proj.Name == "" {
		proj.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	files := newFileSet()

	if doc.defaultItems() {
		err = walkDocuments(dir, func(p string) { files.add(p) })
		if err != nil {
			return nil, err
		}
	}

	err = addItems(files, dir, doc)
	if err != nil {
		return nil, err
	}

	for _, imp := range doc.Imports {
		if !strings.EqualFold(filepath.Ext(imp.Project), ExtSharedItems) {
			continue
		}

		shared := resolveItemPath(dir, imp.Project)

		sharedDoc, sharedErr := readMSBuild(shared)
		if sharedErr != nil {
			return nil, sharedErr
		}

		err = addItems(files, filepath.Dir(shared), sharedDoc)
		if err != nil {
			return nil, err
		}

		l.logger.DebugContext(ctx, "imported shared items", "project", proj.Name, "items", shared)
	}

	proj.Files = files.items

	return proj, nil
}

func addItems(files *fileSet, dir string, doc *msbuildProject) error {
	includes, removes := doc.documentItems()

	for _, spec := range includes {
		err := expandItem(dir, spec, files.add)
		if err != nil {
			return err
		}
	}

	for _, spec := range removes {
		err := expandItem(dir, spec, files.remove)
		if err != nil {
			return err
		}
	}

	return nil
}

// walkDocuments visits every regular file under dir in lexical order,
// skipping build output and hidden directories.
func walkDocuments(dir string, visit func(string)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if d.Type().IsRegular() {
			visit(path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	return nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}

	return slices.ContainsFunc(skippedDirs, func(s string) bool { return strings.EqualFold(s, name) })
}

// fileSet is an insertion-ordered set of paths.
type fileSet struct {
	items []string
	index map[string]bool
}

func newFileSet() *fileSet {
	return &fileSet{index: make(map[string]bool)}
}

func (s *fileSet) add(path string) {
	if s.index[path] {
		return
	}

	s.index[path] = true
	s.items = append(s.items, path)
}

func (s *fileSet) remove(path string) {
	if !s.index[path] {
		return
	}

	delete(s.index, path)
	s.items = slices.DeleteFunc(s.items, func(p string) bool { return p == path })
}
