package csharp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
)

// DefaultContainerName is the name of the entry container type.
const DefaultContainerName = "Program"

// ErrTopLevelStatement indicates a file with top-level statements.
var ErrTopLevelStatement = errors.New("top-level statements are not supported in scripts")

// Declaration is one classified declaration extracted from a file.
type Declaration struct {
	// Entry is true for members of the entry container.
	Entry bool
	Kind  string
	Name  string
	Text  string
	// Leading holds the comment lines attached above the declaration, without markers.
	Leading []string
}

// ContainerDecl describes one declaration of the entry container.
type ContainerDecl struct {
	Header  string
	HasBase bool
}

// FileAnalysis is the immutable result of analyzing one file.
type FileAnalysis struct {
	Path         string
	Imports      []parts.ImportStatement
	Declarations []Declaration
	Containers   []ContainerDecl
}

// Analyzer extracts imports and declarations from C# files.
type Analyzer struct {
	parser    *Parser
	container string
}

// NewAnalyzer creates an Analyzer. An empty container name selects DefaultContainerName.
func NewAnalyzer(parser *Parser, container string) *Analyzer {
	if strings.TrimSpace(container) == "" {
		container = DefaultContainerName
	}

	return &Analyzer{parser: parser, container: container}
}

// ContainerName returns the configured entry container name.
func (a *Analyzer) ContainerName() string { return a.container }

// AnalyzeFile parses one file and classifies its declarations.
// Syntax errors are returned as *SyntaxError.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, src []byte) (*FileAnalysis, error) {
	tree, err := a.parser.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	diags := tree.Diagnose()
	if len(diags) > 0 {
		return nil, &SyntaxError{Source: path, Diagnostics: diags}
	}

	w := &walker{tree: tree, container: a.container, result: &FileAnalysis{Path: path}}

	err = w.scope(tree.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w.result, nil
}

// walker accumulates declarations while traversing one tree.
type walker struct {
	tree      *Tree
	container string
	result    *FileAnalysis

	pending   []sitter.Node // comments waiting for the next declaration
	last      *span         // most recent declaration, for trailing comments
	lastEntry bool
	spans     []span
}

type span struct {
	start, end uint
	decl       Declaration
	row        uint
}

// scope walks a compilation unit, namespace or namespace body.
func (w *walker) scope(n sitter.Node) error {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		kind := child.Type()

		switch Classify(kind, declName(w.tree, child), w.container) {
		case ClassComment:
			w.comment(child)
		case ClassImport:
			w.flushPending()
			w.result.Imports = append(w.result.Imports, ParseImport(w.tree.Text(child)))
		case ClassNamespace:
			w.flushPending()

			err := w.scope(child)
			if err != nil {
				return err
			}
		case ClassEntryContainer:
			w.flushPending()
			w.containerDecl(child)
		case ClassStandalone:
			w.declaration(child, false)
		case ClassUnsupported:
			pos := child.StartPoint()

			return fmt.Errorf("line %d: %w", uint(pos.Row)+1, ErrTopLevelStatement)
		case ClassSkip:
			w.flushPending()
		}
	}

	w.flushPending()
	w.finish()

	return nil
}

// containerDecl records the container header and extracts its members.
func (w *walker) containerDecl(n sitter.Node) {
	body := n.ChildByFieldName("body")
	if body.IsNull() {
		return
	}

	header := string(w.tree.Source[n.StartByte():body.StartByte()])
	header = strings.Join(strings.Fields(header), " ")
	w.result.Containers = append(w.result.Containers, ContainerDecl{
		Header:  header,
		HasBase: hasChildOfType(n, "base_list"),
	})

	w.last = nil

	for idx := range body.NamedChildCount() {
		member := body.NamedChild(idx)

		switch Classify(member.Type(), "", "") {
		case ClassComment:
			w.comment(member)
		case ClassSkip:
			w.flushPending()
		default:
			w.declaration(member, true)
		}
	}

	w.flushPending()
	w.last = nil
}

func (w *walker) comment(n sitter.Node) {
	// A comment on the same line as the previous declaration trails it.
	if w.last != nil && len(w.pending) == 0 && uint(n.StartPoint().Row) == w.last.row {
		w.last.end = n.EndByte()

		return
	}

	w.pending = append(w.pending, n)
}

// flushPending drops comments that are not followed by a declaration.
func (w *walker) flushPending() {
	w.pending = w.pending[:0]
	w.last = nil
}

func (w *walker) declaration(n sitter.Node, entry bool) {
	start := n.StartByte()

	leading := make([]string, 0, len(w.pending))
	if len(w.pending) > 0 {
		start = w.pending[0].StartByte()

		for _, c := range w.pending {
			leading = append(leading, commentLines(w.tree.Text(c))...)
		}
	}

	w.pending = w.pending[:0]

	w.spans = append(w.spans, span{
		start: lineStart(w.tree.Source, start),
		end:   n.EndByte(),
		row:   uint(n.EndPoint().Row),
		decl: Declaration{
			Entry:   entry,
			Kind:    n.Type(),
			Name:    declName(w.tree, n),
			Leading: leading,
		},
	})
	w.last = &w.spans[len(w.spans)-1]
}

// finish materializes the collected spans into declarations.
func (w *walker) finish() {
	for _, s := range w.spans {
		decl := s.decl
		decl.Text = string(w.tree.Source[s.start:s.end])
		w.result.Declarations = append(w.result.Declarations, decl)
	}

	w.spans = w.spans[:0]
	w.last = nil
}

// declName returns the value of the node's "name" field, if any.
func declName(t *Tree, n sitter.Node) string {
	name := n.ChildByFieldName("name")
	if name.IsNull() {
		return ""
	}

	return t.Text(name)
}

func hasChildOfType(n sitter.Node, typ string) bool {
	for idx := range n.NamedChildCount() {
		if n.NamedChild(idx).Type() == typ {
			return true
		}
	}

	return false
}

// lineStart extends start back over the indentation of its line.
func lineStart(src []byte, start uint) uint {
	pos := start
	for pos > 0 {
		c := src[pos-1]
		if c != ' ' && c != '\t' {
			break
		}

		pos--
	}

	if pos == 0 || src[pos-1] == '\n' {
		return pos
	}

	return start
}

// commentLines strips comment markers and returns the comment's text lines.
func commentLines(text string) []string {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "/*"); ok {
		rest = strings.TrimSuffix(rest, "*/")

		var out []string

		for line := range strings.SplitSeq(rest, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
			if line != "" {
				out = append(out, line)
			}
		}

		return out
	}

	text = strings.TrimLeft(text, "/")

	return []string{strings.TrimSpace(text)}
}
