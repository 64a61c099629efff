// Package catalog renders the skill listings a model sees at startup: the
// fat index of every name and description, and the compressed routing index
// maintained in the skills repository README.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	beginMarker = "<!-- BEGIN DOTNET-SKILLS COMPRESSED INDEX -->"
	endMarker   = "<!-- END DOTNET-SKILLS COMPRESSED INDEX -->"

	snippetHeading = "Compressed Snippet Template"
)

// FatIndex lists every skill as "- **name**: description" under a heading.
func FatIndex(skills []*skill.Skill) string {
	lines := []string{"# Available Skills", ""}
	for _, s := range skills {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", s.Name, s.Description))
	}
	return strings.Join(lines, "\n")
}

// LoadCompressedIndex reads the index from a README or an index SKILL.md.
// A missing file yields an empty index.
func LoadCompressedIndex(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading compressed index: %w", err)
	}
	return CompressedIndex(data), nil
}

// CompressedIndex extracts the routing index from markdown. The README form
// sits between marker comments; the SKILL.md form is the first code block
// under the "Compressed Snippet Template" heading.
func CompressedIndex(source []byte) string {
	content := string(source)
	if start := strings.Index(content, beginMarker); start >= 0 {
		block := content[start+len(beginMarker):]
		if end := strings.Index(block, endMarker); end >= 0 {
			block = block[:end]
		}
		return stripFences(strings.TrimSpace(block))
	}
	return snippetBlock(source)
}

func stripFences(block string) string {
	if !strings.HasPrefix(block, "```") {
		return block
	}
	var kept []string
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// snippetBlock returns the first code block anywhere after the snippet
// heading, even past later headings.
func snippetBlock(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	inSection := false
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.Heading:
			if strings.TrimSpace(headingText(v, source)) == snippetHeading {
				inSection = true
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if inSection {
				return strings.TrimSpace(blockText(v, source))
			}
		}
	}
	return ""
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// Context is the guidance injected for an activated skill, truncated to
// maxLines when maxLines is positive.
func Context(s *skill.Skill, maxLines int) string {
	if maxLines > 0 {
		return s.Truncated(maxLines)
	}
	return s.Content
}
