package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// Run sizes are in half-points.
const (
	titleSize    = "36"
	subtitleSize = "24"
	footerSize   = "18"
	footerColor  = "808080"
)

var separatorLine = strings.Repeat("_", 80)

// WriteDOCX serializes doc as an Office Open XML document. Numbered items are
// renumbered from 1 for every consecutive run. Paragraph styles reference the
// style set in xml/report/word/styles.xml.
func WriteDOCX(w io.Writer, doc Document) error {
	out := newReportDocx()

	number := 0
	for _, b := range doc.Blocks() {
		if b.Kind != Numbered {
			number = 0
		}
		switch b.Kind {
		case Title:
			p := out.AddParagraph().Justification("center")
			setStyle(p, "Title")
			p.AddText(b.Text).Bold().Size(titleSize)
		case Subtitle:
			for _, line := range strings.Split(b.Text, "\n") {
				p := out.AddParagraph().Justification("center")
				setStyle(p, "Subtitle")
				p.AddText(line).Italic().Size(subtitleSize)
			}
		case Rule:
			out.AddParagraph()
			out.AddParagraph().AddText(separatorLine)
		case Heading:
			p := out.AddParagraph()
			setStyle(p, fmt.Sprintf("Heading%d", b.Level))
			addSpans(p, b.Text)
		case Bullet:
			p := out.AddParagraph()
			p.AddText("• ")
			addSpans(p, b.Text)
		case Numbered:
			number++
			p := out.AddParagraph()
			p.AddText(fmt.Sprintf("%d. ", number))
			addSpans(p, b.Text)
		case Footer:
			out.AddParagraph().Justification("center").AddText(b.Text).Size(footerSize).Italic().Color(footerColor)
		default:
			addSpans(out.AddParagraph(), b.Text)
		}
	}

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addSpans(p *docx.Paragraph, s string) {
	for _, span := range InlineSpans(s) {
		r := p.AddText(span.Text)
		if span.Bold {
			r.Bold()
		}
		if span.Italic {
			r.Italic()
		}
	}
}

func setStyle(p *docx.Paragraph, style string) {
	if p.Properties == nil {
		p.Properties = &docx.ParagraphProperties{}
	}
	p.Properties.Style = &docx.Style{Val: style}
}
