package render

import (
	"strings"
	"time"
)

// Meeting is the immutable context printed in the report header.
type Meeting struct {
	Organization string
	Date         time.Time
	Agenda       string
}

// Labels is the fixed wording of the structural blocks.
type Labels struct {
	Title         string
	TopicsHeading string
	Footer        string
	DateLayout    string
}

var labels = map[string]Labels{
	"en": {
		Title:         "MEETING MINUTES",
		TopicsHeading: "Topics covered:",
		Footer:        "Automatically generated document - AI Meeting Report",
		DateLayout:    "January 2, 2006",
	},
	"fr": {
		Title:         "COMPTE RENDU DE RÉUNION",
		TopicsHeading: "Sujets traités :",
		Footer:        "Document généré automatiquement - Compte Rendu IA",
		DateLayout:    "02/01/2006",
	},
}

// LabelsFor returns the wording for a language code, defaulting to English.
func LabelsFor(lang string) Labels {
	if l, ok := labels[strings.ToLower(lang)]; ok {
		return l
	}
	return labels["en"]
}

type Options struct {
	Labels Labels
	Rules  []LineRule
}

// Document is a rendered report: a fixed header, the blocks classified from
// the markdown and a fixed trailer.
type Document struct {
	Header  []Block `json:"header"`
	Content []Block `json:"content"`
	Trailer []Block `json:"trailer"`
}

// Blocks returns the full ordered block sequence.
func (d Document) Blocks() []Block {
	out := make([]Block, 0, len(d.Header)+len(d.Content)+len(d.Trailer))
	out = append(out, d.Header...)
	out = append(out, d.Content...)
	return append(out, d.Trailer...)
}

// Render builds the document for markdown. The header and footer are always
// present whatever the markdown contains, and the output depends only on the
// inputs.
func Render(markdown string, m Meeting, opts Options) Document {
	if opts.Labels == (Labels{}) {
		opts.Labels = LabelsFor("en")
	}

	header := []Block{
		{Kind: Title, Text: opts.Labels.Title},
		{Kind: Subtitle, Text: m.Organization + "\n" + m.Date.Format(opts.Labels.DateLayout)},
		{Kind: Rule},
	}
	if agenda := strings.TrimSpace(m.Agenda); agenda != "" {
		header = append(header,
			Block{Kind: Heading, Level: 2, Text: opts.Labels.TopicsHeading},
			Block{Kind: Paragraph, Text: agenda},
		)
	}
	return Document{
		Header:  header,
		Content: Parse(markdown, opts.Rules),
		Trailer: []Block{
			{Kind: Rule},
			{Kind: Footer, Text: opts.Labels.Footer},
		},
	}
}
