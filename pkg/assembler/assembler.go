// Package assembler renders extracted project content into a single script
// and checks the result with a syntax front end.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/pbmerge/pkg/csharp"
	"github.com/Sumatoshi-tech/pbmerge/pkg/parts"
	"github.com/Sumatoshi-tech/pbmerge/pkg/project"
)

// ErrInvalidScript indicates that the merged script did not pass validation.
var ErrInvalidScript = errors.New("merged script failed validation")

// Validator inspects a merged script. It must not change the text.
type Validator interface {
	Validate(ctx context.Context, proj *project.SourceProject, script string) error
}

// Assembler merges project content into script text.
type Assembler struct {
	validator Validator
}

// New creates an Assembler. A nil validator disables validation.
func New(validator Validator) *Assembler {
	return &Assembler{validator: validator}
}

// Assemble sorts and renders the content, then validates the result.
func (a *Assembler) Assemble(ctx context.Context, proj *project.SourceProject, content *parts.ProjectContent) (string, error) {
	script := Render(content)

	if a.validator == nil {
		return script, nil
	}

	err := a.validator.Validate(ctx, proj, script)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	return script, nil
}

// Render produces the merged script: imports, the entry container holding
// every entry fragment, then the standalone fragments. Identical content
// always renders to identical text with LF line endings.
func Render(content *parts.ProjectContent) string {
	content.Sort()

	var b strings.Builder

	for _, stmt := range content.Imports.Items() {
		b.WriteString(stmt.String())
		b.WriteByte('\n')
	}

	b.WriteString(content.ContainerHeader())
	b.WriteString("\n{\n")

	for _, e := range content.Entries {
		writeFragment(&b, e.Text)
	}

	b.WriteString("}\n")

	for _, s := range content.Standalone {
		writeFragment(&b, s.Text)
	}

	return b.String()
}

func writeFragment(b *strings.Builder, text string) {
	text = strings.TrimRight(csharp.NormalizeNewlines(text), "\n")
	if text == "" {
		return
	}

	b.WriteString(text)
	b.WriteByte('\n')
}

// SyntaxValidator validates scripts by reparsing them, labelling diagnostics
// with the originating project and its language version.
type SyntaxValidator struct {
	syntax *csharp.SyntaxValidator
}

// NewSyntaxValidator creates a SyntaxValidator.
func NewSyntaxValidator(parser *csharp.Parser) *SyntaxValidator {
	return &SyntaxValidator{syntax: csharp.NewSyntaxValidator(parser)}
}

// Validate implements Validator.
func (v *SyntaxValidator) Validate(ctx context.Context, proj *project.SourceProject, script string) error {
	label := "script"
	settings := csharp.Settings{}

	if proj != nil {
		label = proj.Path
		settings = csharp.Settings{
			LanguageVersion: proj.Settings.LanguageVersion,
			DefineConstants: proj.Settings.DefineConstants,
		}
	}

	return v.syntax.Validate(ctx, label, settings, script)
}
