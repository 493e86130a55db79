package indexer

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // Max runes per chunk (targets ~450 tokens for 512-token embedding model)
	chunkOverlap = 100
)

// Chunker splits item documents into heading-scoped chunks.
type Chunker struct {
	parser   goldmark.Markdown
	MinRunes int
	MaxRunes int
	Overlap  int
}

// NewChunker creates a chunker with the default size limits.
func NewChunker() *Chunker {
	return &Chunker{
		parser:   goldmark.New(),
		MinRunes: minChunkSize,
		MaxRunes: maxChunkSize,
		Overlap:  chunkOverlap,
	}
}

// Chunk parses a markdown document and returns its chunks in order.
// Each section under a heading becomes one chunk; small sections are merged
// into the next one and large ones are split into overlapping windows.
func (c *Chunker) Chunk(content []byte) []Chunk {
	if len(bytes.TrimSpace(content)) == 0 {
		return []Chunk{}
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	chunks := c.applySizeConstraints(buildSections(doc, content))

	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

type headingInfo struct {
	level int
	text  string
}

// buildSections groups the top-level blocks of doc under their heading path.
func buildSections(doc ast.Node, content []byte) []Chunk {
	var (
		sections []Chunk
		stack    []headingInfo
		path     string
		parts    []string
	)

	flush := func() {
		if len(parts) > 0 {
			sections = append(sections, Chunk{HeadingPath: path, Text: strings.Join(parts, "\n\n")})
		}
		parts = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			for len(stack) > 0 && stack[len(stack)-1].level >= heading.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingInfo{level: heading.Level, text: nodeText(heading, content)})
			path = buildHeadingPath(stack)
			continue
		}

		if t := blockText(n, content); t != "" {
			parts = append(parts, t)
		}
	}
	flush()

	return sections
}

// buildHeadingPath renders the stack as "# A > ## B".
func buildHeadingPath(stack []headingInfo) string {
	parts := make([]string, 0, len(stack))
	for _, h := range stack {
		parts = append(parts, strings.Repeat("#", h.level)+" "+h.text)
	}
	return strings.Join(parts, " > ")
}

// blockText flattens a block node. List items each go on their own line.
func blockText(n ast.Node, content []byte) string {
	switch node := n.(type) {
	case *ast.HTMLBlock:
		return ""
	case *ast.List:
		var lines []string
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			if t := nodeText(item, content); t != "" {
				lines = append(lines, "- "+t)
			}
		}
		return strings.Join(lines, "\n")
	}
	return nodeText(n, content)
}

// nodeText collects the text under n.
func nodeText(n ast.Node, content []byte) string {
	var buf strings.Builder

	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch child.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if child != n {
					buf.WriteString("\n")
				}
			}
			return ast.WalkContinue, nil
		}

		switch node := child.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(content))
			switch {
			case node.HardLineBreak():
				buf.WriteString("\n")
			case node.SoftLineBreak():
				buf.WriteString(" ")
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(content))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := child.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(content))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

// applySizeConstraints merges undersized sections into their successor and
// splits oversized ones.
func (c *Chunker) applySizeConstraints(sections []Chunk) []Chunk {
	result := []Chunk{}

	for i := 0; i < len(sections); i++ {
		current := sections[i]

		for utf8.RuneCountInString(current.Text) < c.MinRunes && i+1 < len(sections) {
			merged := current.Text + "\n\n" + sections[i+1].Text
			if utf8.RuneCountInString(merged) > c.MaxRunes {
				break
			}
			current.Text = merged
			i++
		}

		if utf8.RuneCountInString(current.Text) > c.MaxRunes {
			for _, part := range c.split(current.Text) {
				result = append(result, Chunk{HeadingPath: current.HeadingPath, Text: part})
			}
			continue
		}
		result = append(result, current)
	}

	return result
}

// split cuts s into windows of at most MaxRunes, preferring paragraph, line
// and sentence boundaries. Consecutive windows share up to Overlap runes,
// starting on a word boundary.
func (c *Chunker) split(s string) []string {
	runes := []rune(s)
	var parts []string

	start := 0
	for start < len(runes) {
		end := start + c.MaxRunes
		if end >= len(runes) {
			if part := strings.TrimSpace(string(runes[start:])); part != "" {
				parts = append(parts, part)
			}
			break
		}

		cut := splitPoint(runes[start:end])
		if cut <= 0 {
			cut = end - start
		}
		if part := strings.TrimSpace(string(runes[start : start+cut])); part != "" {
			parts = append(parts, part)
		}

		next := start + cut - c.Overlap
		if next <= start {
			next = start + cut
		}
		for next < start+cut && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		start = next
	}

	return parts
}

// splitPoint returns the offset just past the last good boundary in the
// second half of window, or 0 when there is none.
func splitPoint(window []rune) int {
	half := len(window) / 2
	for _, sep := range []string{"\n\n", "\n", ". ", "? ", "! ", " "} {
		if i := lastIndexRunes(window, []rune(sep)); i >= half {
			return i + len([]rune(sep))
		}
	}
	return 0
}

func lastIndexRunes(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
