package options

import (
	"path/filepath"
	"strings"
)

// IsIgnored reports whether path lies under an ignored folder or is an ignored file.
// Comparison is case-insensitive, matching the file systems the options come from.
func (c *ProjectConfig) IsIgnored(path string) bool {
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.ProjectDir(), path)
	}

	for _, file := range c.IgnoredFiles {
		if strings.EqualFold(path, file) {
			return true
		}
	}

	for _, folder := range c.IgnoredFolders {
		if isUnder(path, folder) {
			return true
		}
	}

	return false
}

func isUnder(path, folder string) bool {
	prefix := strings.TrimSuffix(folder, string(filepath.Separator)) + string(filepath.Separator)

	return len(path) > len(prefix) && strings.EqualFold(path[:len(prefix)], prefix)
}
