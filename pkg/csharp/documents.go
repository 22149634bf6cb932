package csharp

import (
	"path/filepath"
	"strings"
)

// targetFrameworkMarkers appear in the names of generated assembly attribute files.
var targetFrameworkMarkers = []string{
	".NETFramework,Version=",
	".NETCoreApp,Version=",
	".NETStandard,Version=",
}

const (
	debugSuffix = ".debug"
	debugInfix  = ".debug."
	readmeName  = "readme"
	readmeExt   = ".readme"
)

// IsDebugDocument reports whether a file name marks a document that contributes
// nothing to the script: empty names, generated target-framework attribute
// files, and files whose name ends with ".debug" or contains ".debug.".
func IsDebugDocument(path string) bool {
	name := filepath.Base(path)
	if strings.TrimSpace(name) == "" || name == "." || name == string(filepath.Separator) {
		return true
	}

	for _, marker := range targetFrameworkMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}

	lower := strings.ToLower(name)
	stem := strings.TrimSuffix(lower, filepath.Ext(lower))

	return strings.HasSuffix(lower, debugSuffix) || strings.HasSuffix(stem, debugSuffix) ||
		strings.Contains(lower, debugInfix)
}

// IsReadme reports whether path is the readme of the project rooted at projectDir.
// The readme lives directly in the project directory and is named "readme"
// (any case, any extension) or carries the ".readme" extension.
func IsReadme(projectDir, path string) bool {
	if !samePath(filepath.Dir(path), projectDir) {
		return false
	}

	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	return strings.TrimSuffix(name, ext) == readmeName || ext == readmeExt
}

// NormalizeReadme converts line endings to LF and ensures a trailing newline.
func NormalizeReadme(text string) string {
	text = NormalizeNewlines(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	return text
}

// NormalizeNewlines converts CRLF and CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return strings.ReplaceAll(text, "\r", "\n")
}

func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
