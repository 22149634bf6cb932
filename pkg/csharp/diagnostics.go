package csharp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ErrSyntax indicates that a source text contains syntax errors.
var ErrSyntax = errors.New("syntax error")

// maxDiagnostics caps the number of diagnostics collected from one tree.
const maxDiagnostics = 20

// Diagnostic is a single syntax problem.
type Diagnostic struct {
	Line    uint
	Column  uint
	Message string
}

// String formats the diagnostic as "line:col: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// SyntaxError reports the diagnostics found in one source text.
type SyntaxError struct {
	// Source names the text, a file path or a merged script label.
	Source      string
	Diagnostics []Diagnostic
}

func (e *SyntaxError) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.String())
	}

	return fmt.Sprintf("%s: %s: %s", e.Source, ErrSyntax, strings.Join(lines, "; "))
}

// Unwrap allows errors.Is(err, ErrSyntax).
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Diagnose walks the tree and returns error and missing nodes.
// A missing node is a zero-width leaf inserted by error recovery.
func (t *Tree) Diagnose() []Diagnostic {
	var diags []Diagnostic

	collectDiagnostics(t, t.Root, &diags)

	return diags
}

func collectDiagnostics(t *Tree, n sitter.Node, diags *[]Diagnostic) {
	if len(*diags) >= maxDiagnostics {
		return
	}

	switch {
	case n.Type() == "ERROR":
		*diags = append(*diags, newDiagnostic(n, "unexpected "+describe(t, n)))

		return
	case n.StartByte() == n.EndByte() && n.ChildCount() == 0 && n.Type() != "compilation_unit":
		*diags = append(*diags, newDiagnostic(n, "missing "+n.Type()))

		return
	}

	// Missing tokens are usually anonymous, so every child is visited.
	for idx := range n.ChildCount() {
		collectDiagnostics(t, n.Child(idx), diags)
	}
}

func newDiagnostic(n sitter.Node, msg string) Diagnostic {
	pos := n.StartPoint()

	return Diagnostic{
		Line:    uint(pos.Row) + 1,
		Column:  uint(pos.Column) + 1,
		Message: msg,
	}
}

// describe returns a short excerpt of the node text for messages.
func describe(t *Tree, n sitter.Node) string {
	const maxExcerpt = 24

	text := strings.Join(strings.Fields(t.Text(n)), " ")
	if len(text) > maxExcerpt {
		text = text[:maxExcerpt] + "..."
	}

	if text == "" {
		return "input"
	}

	return fmt.Sprintf("%q", text)
}

// Settings carries the compiler-level options of the originating project.
// The syntax front end only uses them to label diagnostics.
type Settings struct {
	LanguageVersion string
	DefineConstants []string
}

// SyntaxValidator checks merged scripts by reparsing them.
type SyntaxValidator struct {
	parser *Parser
}

// NewSyntaxValidator creates a validator backed by the given parser.
func NewSyntaxValidator(parser *Parser) *SyntaxValidator {
	return &SyntaxValidator{parser: parser}
}

// Validate parses the script text and returns a *SyntaxError when it has diagnostics.
// The text itself is never modified.
func (v *SyntaxValidator) Validate(ctx context.Context, label string, settings Settings, script string) error {
	tree, err := v.parser.Parse(ctx, []byte(script))
	if err != nil {
		return err
	}
	defer tree.Close()

	diags := tree.Diagnose()
	if len(diags) == 0 {
		return nil
	}

	source := label
	if settings.LanguageVersion != "" {
		source = fmt.Sprintf("%s (C# %s)", label, settings.LanguageVersion)
	}

	return &SyntaxError{Source: source, Diagnostics: diags}
}
