package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pbmerge/pkg/safeconv"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat indicates an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Printer writes reports in one format.
type Printer struct {
	format string
	colors bool
}

// NewPrinter creates a Printer. colors only affects the text format.
func NewPrinter(format string, colors bool) (*Printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}

	return &Printer{format: format, colors: colors}, nil
}

// Print writes rep to w.
func (p *Printer) Print(w io.Writer, rep Report) error {
	if p.format == FormatText {
		_, err := io.WriteString(w, p.text(rep))

		return err
	}

	return p.Encode(w, rep)
}

// Encode writes v as JSON in the json format and as YAML otherwise.
func (p *Printer) Encode(w io.Writer, v any) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func (p *Printer) text(rep Report) string {
	var b strings.Builder

	if len(rep.Projects) > 0 {
		tbl := table.NewWriter()
		tbl.SetStyle(table.StyleLight)
		tbl.Style().Options.SeparateRows = false
		tbl.Style().Options.DrawBorder = false

		tbl.AppendHeader(table.Row{"Project", "Status", "Size", "Output"})

		for _, proj := range rep.Projects {
			tbl.AppendRow(table.Row{proj.Name, p.status(proj.Status), size(proj), detail(proj)})
		}

		tbl.AppendFooter(table.Row{
			fmt.Sprintf("%d project(s)", len(rep.Projects)), "", "",
			fmt.Sprintf("built %d, skipped %d, failed %d", rep.Built, rep.Skipped, rep.Failed),
		})

		b.WriteString(tbl.Render())
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("Build %s finished in %s", shortID(rep.BuildID), rep.Duration())
	if rep.DryRun {
		summary += " (dry run)"
	}

	if rep.Error != "" && rep.BuildID == "" {
		summary = "Build failed: " + rep.Error
	}

	b.WriteString(p.paint(summaryColor(rep), summary))
	b.WriteString("\n")

	return b.String()
}

func (p *Printer) status(status string) string {
	switch status {
	case StatusBuilt:
		return p.paint(color.FgGreen, status)
	case StatusFailed:
		return p.paint(color.FgRed, status)
	default:
		return p.paint(color.FgYellow, status)
	}
}

func (p *Printer) paint(attr color.Attribute, text string) string {
	c := color.New(attr)
	if p.colors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c.Sprint(text)
}

func summaryColor(rep Report) color.Attribute {
	if rep.Failed > 0 || rep.Error != "" {
		return color.FgRed
	}

	return color.FgGreen
}

func size(proj Project) string {
	if proj.Status != StatusBuilt {
		return ""
	}

	return humanize.Bytes(safeconv.MustIntToUint64(proj.Bytes))
}

func detail(proj Project) string {
	switch proj.Status {
	case StatusBuilt:
		return proj.Script
	case StatusFailed:
		return proj.Stage + ": " + proj.Reason
	default:
		return proj.Reason
	}
}

func shortID(id string) string {
	const shortLen = 8

	if len(id) > shortLen {
		return id[:shortLen]
	}

	return id
}
