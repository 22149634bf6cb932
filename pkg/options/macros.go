package options

import (
	"regexp"
	"strings"
)

// MacroProjectName names the project display name macro.
const MacroProjectName = "ProjectName"

var macroPattern = regexp.MustCompile(`\$\(([^()]+)\)`)

// ExpandMacros replaces $(Name) tokens with values from macros. Token names
// match case-insensitively; unknown tokens are left as written.
func ExpandMacros(template string, macros map[string]string) string {
	lookup := make(map[string]string, len(macros))
	for name, value := range macros {
		lookup[strings.ToLower(name)] = value
	}

	return macroPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-1])
		if value, ok := lookup[strings.ToLower(name)]; ok {
			return value
		}

		return token
	})
}
