package chunking

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// section is a heading plus its body: everything until the next heading of
// equal or greater level.
type section struct {
	heading string
	level   int
	body    string
}

// parseSections walks the markdown AST and flattens it into heading-delimited
// sections. A document without headings becomes a single section.
func parseSections(document string) []section {
	src := []byte(document)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var sections []section
	current := section{}
	var body strings.Builder

	flush := func() {
		current.body = strings.TrimSpace(body.String())
		if current.body != "" || current.heading != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			current = section{
				heading: string(nodeText(heading, src)),
				level:   heading.Level,
			}
			continue
		}
		if t := blockText(n, src); t != "" {
			if body.Len() > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(t)
		}
	}
	flush()

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(document)
		if trimmed != "" {
			sections = append(sections, section{body: trimmed})
		}
	}
	return sections
}

// blockText reads the raw source lines of a block node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock {
			if t := blockText(c, src); t != "" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(t)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func nodeText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			continue
		}
		buf.Write(nodeText(c, src))
	}
	return buf.Bytes()
}
