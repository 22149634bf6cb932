package parts

import (
	"strings"
	"unicode"
)

// ImportStatement is a single using directive.
type ImportStatement struct {
	// Name is the imported namespace or type, e.g. "System.Collections.Generic".
	Name string
	// Alias is set for "using Alias = Name;" directives.
	Alias string
	// Static marks "using static Name;" directives.
	Static bool
	// Global marks "global using" directives. It does not affect identity:
	// in a single compilation unit a global using is equivalent to a plain one.
	Global bool
}

// Key returns the semantic identity of the directive. Two directives with the
// same key import the same thing regardless of spacing, comments, or "global".
func (is ImportStatement) Key() string {
	var sb strings.Builder

	if is.Static {
		sb.WriteString("static ")
	}

	if is.Alias != "" {
		sb.WriteString(stripSpace(is.Alias))
		sb.WriteString("=")
	}

	sb.WriteString(stripSpace(is.Name))

	return sb.String()
}

// String renders the directive in canonical form.
func (is ImportStatement) String() string {
	var sb strings.Builder

	sb.WriteString("using ")

	if is.Static {
		sb.WriteString("static ")
	}

	if is.Alias != "" {
		sb.WriteString(stripSpace(is.Alias))
		sb.WriteString(" = ")
	}

	sb.WriteString(stripSpace(is.Name))
	sb.WriteString(";")

	return sb.String()
}

// ImportSet is an insertion-ordered set of import statements keyed by semantic identity.
type ImportSet struct {
	seen  map[string]struct{}
	items []ImportStatement
}

// NewImportSet creates an empty ImportSet.
func NewImportSet() *ImportSet {
	return &ImportSet{seen: make(map[string]struct{})}
}

// Add inserts the statement unless a semantically equal one is already present.
// Returns true when the statement was added.
func (s *ImportSet) Add(stmt ImportStatement) bool {
	key := stmt.Key()
	if _, ok := s.seen[key]; ok {
		return false
	}

	s.seen[key] = struct{}{}
	s.items = append(s.items, stmt)

	return true
}

// Len returns the number of distinct statements.
func (s *ImportSet) Len() int { return len(s.items) }

// Items returns the statements in insertion order.
func (s *ImportSet) Items() []ImportStatement {
	out := make([]ImportStatement, len(s.items))
	copy(out, s.items)

	return out
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)
}
