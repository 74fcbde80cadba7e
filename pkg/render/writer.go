package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// NullText is shown for missing values.
const NullText = "null"

// DefaultMaxWidth bounds a cell's width in text output.
const DefaultMaxWidth = 40

// WriteGrid prints the grid as aligned columns. Cells wider than maxWidth are
// cut with "..."; maxWidth <= 0 uses DefaultMaxWidth.
func WriteGrid(w io.Writer, g *Grid, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)

	headers := make([]string, len(g.Columns))
	rules := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		headers[i] = truncate(c.Name, maxWidth)
		rules[i] = strings.Repeat("-", utf8.RuneCountInString(headers[i]))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for _, row := range g.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = truncate(cellText(c), maxWidth)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteExtended prints each block as "column | value" lines under a row
// header, followed by the summary when rows were omitted.
func WriteExtended(w io.Writer, e *Extended, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, b := range e.Blocks {
		fmt.Fprintf(tw, "-[ RECORD %d ]-\n", b.Index)
		for _, p := range b.Pairs {
			fmt.Fprintf(tw, "%s\t| %s\n", p.Column, oneLine(truncate(cellText(p.Value), maxWidth)))
		}
	}
	if e.Omitted > 0 {
		fmt.Fprintf(tw, "(%s)\n", e.Summary())
	}
	return tw.Flush()
}

func cellText(c Cell) string {
	if c.Null {
		return NullText
	}
	return oneLine(c.Text)
}

func oneLine(s string) string {
	return strings.NewReplacer("\n", `\n`, "\t", " ", "\r", "").Replace(s)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}
