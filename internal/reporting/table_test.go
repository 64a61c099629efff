package reporting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AlignsWideRunes(t *testing.T) {
	tbl := NewTable("Skills",
		Column{Header: "Name"},
		Column{Header: "Lines", Align: AlignRight},
	)
	tbl.AddRow("akka", "12")
	tbl.AddRow("日本語スキル", "1200")

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Skills", lines[0])

	width := runewidth.StringWidth(lines[1])
	for _, l := range lines[2:] {
		assert.Equal(t, width, runewidth.StringWidth(l), "line %q", l)
	}
	assert.True(t, strings.HasSuffix(lines[3], "  12"))
}

func TestTable_TruncatesAndPadsRows(t *testing.T) {
	tbl := NewTable("", Column{Header: "A", MaxWidth: 5}, Column{Header: "B"})
	tbl.AddRow("abcdefghij")
	tbl.AddRow("x", "y", "dropped")

	var buf bytes.Buffer
	tbl.Render(&buf)

	out := buf.String()
	assert.Contains(t, out, "abcd…")
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, 2, tbl.Len())
}
