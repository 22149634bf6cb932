package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

const wildcards = "*?["

// expandItem resolves one item spec and calls visit for each matching path.
// Literal specs are passed through whether or not the file exists, so a
// missing document surfaces when it is read.
func expandItem(dir, spec string, visit func(string)) error {
	path := resolveItemPath(dir, spec)
	if !strings.ContainsAny(path, wildcards) {
		visit(path)

		return nil
	}

	match, err := compileItemGlob(filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("item %q: %w", spec, err)
	}

	root := globRoot(path)
	if _, statErr := os.Stat(root); errors.Is(statErr, fs.ErrNotExist) {
		return nil
	}

	return walkDocuments(root, func(p string) {
		if match(filepath.ToSlash(p)) {
			visit(p)
		}
	})
}

// compileItemGlob compiles an MSBuild wildcard. "**" also matches zero
// directories, which the glob syntax alone does not allow for "a/**/b".
func compileItemGlob(pattern string) (func(string) bool, error) {
	variants := []string{pattern}
	if collapsed := strings.ReplaceAll(pattern, "/**/", "/"); collapsed != pattern {
		variants = append(variants, collapsed)
	}

	globs := make([]glob.Glob, 0, len(variants))

	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob: %w", err)
		}

		globs = append(globs, g)
	}

	return func(path string) bool {
		for _, g := range globs {
			if g.Match(path) {
				return true
			}
		}

		return false
	}, nil
}

// globRoot returns the deepest directory of path without wildcards.
func globRoot(path string) string {
	idx := strings.IndexAny(path, wildcards)

	return filepath.Dir(path[:idx+1])
}
