package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSummary is a line diff between a deployed script and a fresh build.
type DiffSummary struct {
	Insertions int
	Deletions  int
	diffs      []diffmatchpatch.Diff
}

// Diff compares two scripts line by line.
func Diff(previous, current string) DiffSummary {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(previous, current)

	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	summary := DiffSummary{diffs: diffs}

	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") {
			n++
		}

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			summary.Insertions += n
		case diffmatchpatch.DiffDelete:
			summary.Deletions += n
		case diffmatchpatch.DiffEqual:
		}
	}

	return summary
}

// Changed reports whether the scripts differ.
func (s DiffSummary) Changed() bool {
	return s.Insertions > 0 || s.Deletions > 0
}

// Write prints changed lines prefixed with "+" or "-", and the number of
// unchanged lines between them.
func (s DiffSummary) Write(w io.Writer, colors bool) error {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)

	for _, c := range []*color.Color{add, del} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, d := range s.diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		var err error

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			err = writeLines(w, add, "+", lines)
		case diffmatchpatch.DiffDelete:
			err = writeLines(w, del, "-", lines)
		case diffmatchpatch.DiffEqual:
			_, err = fmt.Fprintf(w, "  ... %d unchanged line(s)\n", len(lines))
		}

		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d insertion(s), %d deletion(s)\n", s.Insertions, s.Deletions)

	return err
}

func writeLines(w io.Writer, c *color.Color, prefix string, lines []string) error {
	for _, line := range lines {
		_, err := fmt.Fprintln(w, c.Sprint(prefix+strings.TrimSuffix(line, "\n")))
		if err != nil {
			return err
		}
	}

	return nil
}
