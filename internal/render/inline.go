package render

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

var inlineMarkdown = goldmark.New()

// InlineSpans splits block text on **bold** and *italic* markers. Text that
// does not parse as a single plain paragraph comes back as one plain span.
func InlineSpans(s string) []Span {
	plain := []Span{{Text: s}}
	if s == "" {
		return plain
	}

	src := []byte(s)
	doc := inlineMarkdown.Parser().Parse(text.NewReader(src))
	para, ok := doc.FirstChild().(*ast.Paragraph)
	if !ok || para.NextSibling() != nil {
		return plain
	}

	var spans []Span
	if !collectSpans(para, src, Span{}, &spans) {
		return plain
	}
	return mergeSpans(spans)
}

func collectSpans(parent ast.Node, src []byte, style Span, out *[]Span) bool {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Text:
			t := string(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				t += " "
			}
			*out = append(*out, Span{Text: t, Bold: style.Bold, Italic: style.Italic})
		case *ast.String:
			*out = append(*out, Span{Text: string(node.Value), Bold: style.Bold, Italic: style.Italic})
		case *ast.Emphasis:
			inner := style
			if node.Level >= 2 {
				inner.Bold = true
			} else {
				inner.Italic = true
			}
			if !collectSpans(node, src, inner, out) {
				return false
			}
		case *ast.CodeSpan, *ast.Link:
			if !collectSpans(node, src, style, out) {
				return false
			}
		case *ast.AutoLink:
			*out = append(*out, Span{Text: string(node.Label(src)), Bold: style.Bold, Italic: style.Italic})
		default:
			return false
		}
	}
	return true
}

func mergeSpans(spans []Span) []Span {
	var merged []Span
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Bold == s.Bold && merged[n-1].Italic == s.Italic {
			merged[n-1].Text += s.Text
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
