package csharp

import (
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

var commentPattern = regexp.MustCompile(`//[^\n]*|/\*[\s\S]*?\*/`)

// ParseImport converts the text of a using directive into an ImportStatement.
func ParseImport(text string) parts.ImportStatement {
	text = commentPattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))

	var stmt parts.ImportStatement

	if rest, ok := cutKeyword(text, "global"); ok {
		stmt.Global = true
		text = rest
	}

	if rest, ok := cutKeyword(text, "using"); ok {
		text = rest
	}

	if rest, ok := cutKeyword(text, "static"); ok {
		stmt.Static = true
		text = rest
	}

	// Generic type arguments may not contain '=', so the first one separates the alias.
	if alias, name, ok := strings.Cut(text, "="); ok {
		stmt.Alias = strings.TrimSpace(alias)
		text = name
	}

	stmt.Name = strings.TrimSpace(text)

	return stmt
}

// cutKeyword removes a leading keyword followed by whitespace.
func cutKeyword(text, keyword string) (string, bool) {
	rest, ok := strings.CutPrefix(text, keyword)
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' && rest[0] != '\r') {
		return text, false
	}

	return strings.TrimSpace(rest), true
}
