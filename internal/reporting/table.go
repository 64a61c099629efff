package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Align controls how a column pads its cells.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Column is one table column.
type Column struct {
	Header string
	Align  Align
	// MaxWidth truncates longer cells with "…". Zero means unlimited.
	MaxWidth int
}

// Table is a plain-text table sized by terminal display width, so names
// with wide runes still line up.
type Table struct {
	Title   string
	Columns []Column
	rows    [][]string
}

func NewTable(title string, columns ...Column) *Table {
	return &Table{Title: title, Columns: columns}
}

// Cols builds left-aligned columns from headers.
func Cols(headers ...string) []Column {
	out := make([]Column, len(headers))
	for i, h := range headers {
		out[i] = Column{Header: h}
	}
	return out
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = runewidth.StringWidth(c.Header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			row[i] = t.fit(i, cell)
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	if t.Title != "" {
		fmt.Fprintf(w, "\n%s\n", t.Title) //nolint:errcheck
	}

	headers := make([]string, len(t.Columns))
	rules := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = pad(c.Header, widths[i], c.Align)
		rules[i] = strings.Repeat("─", widths[i])
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(headers, "  ")) //nolint:errcheck
	fmt.Fprintf(w, "  %s\n", strings.Join(rules, "  "))   //nolint:errcheck

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(cell, widths[i], t.Columns[i].Align)
		}
		fmt.Fprintf(w, "  %s\n", strings.TrimRight(strings.Join(cells, "  "), " ")) //nolint:errcheck
	}
}

func (t *Table) fit(col int, s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if limit := t.Columns[col].MaxWidth; limit > 0 {
		return runewidth.Truncate(s, limit, "…")
	}
	return s
}

// pad pads s with spaces so its terminal display width reaches width.
func pad(s string, width int, align Align) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	fill := strings.Repeat(" ", width-sw)
	if align == AlignRight {
		return fill + s
	}
	return s + fill
}
