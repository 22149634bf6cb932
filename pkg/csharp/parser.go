// Package csharp analyzes C# source files for script merging: it parses them
// with tree-sitter, classifies top-level declarations into fragments, collects
// using directives and reports syntax diagnostics.
package csharp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/c_sharp"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	errNoRootNode = errors.New("csharp parser: no root node")
	errPoolType   = errors.New("csharp parser: pool returned unexpected type")
)

var (
	languageOnce sync.Once
	language     *sitter.Language
)

// Language returns the shared tree-sitter C# language.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(c_sharp.GetLanguage())
	})

	return language
}

// Parser parses C# source into tree-sitter trees using a pool of native parsers.
// It is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	lang := Language()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Tree is a parsed source file. Close must be called to release native memory.
type Tree struct {
	tree   *sitter.Tree
	Root   sitter.Node
	Source []byte
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns the source text covered by the node.
func (t *Tree) Text(n sitter.Node) string {
	return string(t.Source[n.StartByte():n.EndByte()])
}

// Parse parses the given content.
func (p *Parser) Parse(ctx context.Context, content []byte) (*Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("csharp parser: failed to parse: %w", err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	return &Tree{tree: tree, Root: root, Source: content}, nil
}
