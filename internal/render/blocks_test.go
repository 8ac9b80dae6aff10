package render

import (
	"strings"
	"testing"
)

func TestClassifyDefaultRules(t *testing.T) {
	tests := []struct {
		line string
		want Block
		ok   bool
	}{
		{"## Decisions", Block{Kind: Heading, Level: 2, Text: "Decisions"}, true},
		{"### Vote", Block{Kind: Heading, Level: 3, Text: "Vote"}, true},
		{"# Minutes", Block{Kind: Heading, Level: 1, Text: "Minutes"}, true},
		{"#### Deep", Block{Kind: Paragraph, Text: "#### Deep"}, true},
		{"##NoSpace", Block{Kind: Paragraph, Text: "##NoSpace"}, true},
		{"- Budget approved", Block{Kind: Bullet, Text: "Budget approved"}, true},
		{"* Roads", Block{Kind: Bullet, Text: "Roads"}, true},
		{"3. Send invoice", Block{Kind: Numbered, Text: "Send invoice"}, true},
		{"9. Last", Block{Kind: Numbered, Text: "Last"}, true},
		{"0. Zero", Block{Kind: Paragraph, Text: "0. Zero"}, true},
		{"10. Overflow item", Block{Kind: Paragraph, Text: "10. Overflow item"}, true},
		{"3.Tight", Block{Kind: Paragraph, Text: "3.Tight"}, true},
		{strings.Repeat("_", 80), Block{}, false},
		{"_aside_", Block{}, false},
		{"   ", Block{}, false},
		{"", Block{}, false},
		{"  Plain text with **bold**  ", Block{Kind: Paragraph, Text: "Plain text with **bold**"}, true},
	}
	for _, tc := range tests {
		got, ok := Classify(tc.line, DefaultRules)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Classify(%q) = %+v, %v; want %+v, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestClassifyMultiDigitRules(t *testing.T) {
	tests := []struct {
		line string
		want Block
	}{
		{"10. Overflow item", Block{Kind: Numbered, Text: "Overflow item"}},
		{"3. Send invoice", Block{Kind: Numbered, Text: "Send invoice"}},
		{"123. Many", Block{Kind: Numbered, Text: "Many"}},
		{"12.5 percent", Block{Kind: Paragraph, Text: "12.5 percent"}},
		{"## 10. Heading wins", Block{Kind: Heading, Level: 2, Text: "10. Heading wins"}},
	}
	for _, tc := range tests {
		got, ok := Classify(tc.line, MultiDigitRules)
		if !ok || got != tc.want {
			t.Errorf("Classify(%q) = %+v, %v; want %+v", tc.line, got, ok, tc.want)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// "- " is checked before the numbered rule, and headings before both.
	got, _ := Classify("- 1. nested", DefaultRules)
	if got.Kind != Bullet || got.Text != "1. nested" {
		t.Errorf("expected bullet, got %+v", got)
	}
	got, _ = Classify("### - not a bullet", DefaultRules)
	if got.Kind != Heading || got.Level != 3 {
		t.Errorf("expected level 3 heading, got %+v", got)
	}
}

func TestClassifyNoMatchingRule(t *testing.T) {
	if _, ok := Classify("text", []LineRule{bulletRule}); ok {
		t.Error("expected no block when no rule matches")
	}
}

func TestParseSkipsBlankAndSeparatorLines(t *testing.T) {
	md := "## 1. GENERAL\n\n- Date: Not specified\n" + strings.Repeat("_", 40) + "\n\n1. First\n2. Second\nClosing words\n"
	got := Parse(md, nil)
	want := []Block{
		{Kind: Heading, Level: 2, Text: "1. GENERAL"},
		{Kind: Bullet, Text: "Date: Not specified"},
		{Kind: Numbered, Text: "First"},
		{Kind: Numbered, Text: "Second"},
		{Kind: Paragraph, Text: "Closing words"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestKindString(t *testing.T) {
	if Heading.String() != "heading" || Kind(99).String() != "unknown" {
		t.Errorf("unexpected kind names %q %q", Heading.String(), Kind(99).String())
	}
}
