package modules

import (
	"cmp"
	"context"
	"slices"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
	"github.com/Sumatoshi-tech/pbmerge/pkg/safeconv"
)

// CommentMinifier removes comments. The pre phase drops the comment block
// leading each fragment; the post phase removes every comment found in the
// syntax tree of the assembled script.
type CommentMinifier struct {
	parser *csharp.Parser
}

// NewCommentMinifier creates a CommentMinifier.
func NewCommentMinifier(parser *csharp.Parser) *CommentMinifier {
	return &CommentMinifier{parser: parser}
}

// PreMinify strips leading line comments from every fragment.
func (m *CommentMinifier) PreMinify(_ context.Context, content *parts.ProjectContent) error {
	for _, frag := range content.Fragments() {
		part := frag.Source()
		part.Text = stripLeadingComments(part.Text)
	}

	return nil
}

func stripLeadingComments(text string) string {
	rest := text

	for rest != "" {
		line, after, _ := strings.Cut(rest, "\n")

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "//") {
			break
		}

		rest = after
	}

	return rest
}

// PostMinify removes comments from the script. Lines holding only a comment
// are removed entirely.
func (m *CommentMinifier) PostMinify(ctx context.Context, script string) (string, error) {
	tree, err := m.parser.Parse(ctx, []byte(script))
	if err != nil {
		return "", err
	}
	defer tree.Close()

	var spans [][2]uint

	collectComments(tree.Root, &spans)

	if len(spans) == 0 {
		return script, nil
	}

	slices.SortFunc(spans, func(a, b [2]uint) int { return cmp.Compare(a[0], b[0]) })

	src := tree.Source

	var (
		out  strings.Builder
		prev uint
	)

	out.Grow(len(src))

	for _, s := range spans {
		start, end, sep := widen(src, s[0], s[1])
		start = max(start, prev)

		out.Write(src[prev:start])
		out.WriteString(sep)
		prev = end
	}

	out.Write(src[prev:])

	return out.String(), nil
}

func collectComments(n sitter.Node, spans *[][2]uint) {
	if n.Type() == "comment" {
		*spans = append(*spans, [2]uint{n.StartByte(), n.EndByte()})

		return
	}

	for idx := range n.NamedChildCount() {
		collectComments(n.NamedChild(idx), spans)
	}
}

// widen returns the byte range to drop for a comment and the text replacing
// it. A comment alone on its line takes the line with it. A trailing comment
// takes the blanks before it. A comment between tokens collapses with its
// surrounding blanks into one space so the tokens stay apart.
func widen(src []byte, start, end uint) (uint, uint, string) {
	size := safeconv.MustIntToUint(len(src))

	lineStart := start
	for lineStart > 0 && isBlank(src[lineStart-1]) {
		lineStart--
	}

	lineEnd := end
	for lineEnd < size && (isBlank(src[lineEnd]) || src[lineEnd] == '\r') {
		lineEnd++
	}

	ownLine := lineStart == 0 || src[lineStart-1] == '\n'
	atEOL := lineEnd == size || src[lineEnd] == '\n'

	switch {
	case ownLine && atEOL:
		if lineEnd < size {
			lineEnd++
		}

		return lineStart, lineEnd, ""
	case atEOL:
		return lineStart, end, ""
	case ownLine:
		// Keep the indentation of the code that follows.
		return start, lineEnd, ""
	default:
		return lineStart, lineEnd, " "
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
