package render

import "strings"

// Kind tags a document block.
type Kind int

const (
	Paragraph Kind = iota
	Heading
	Bullet
	Numbered

	// Structural blocks emitted by Render around the content.
	Title
	Subtitle
	Rule
	Footer

	// Skip marks a line that produces no block.
	Skip
)

var kindNames = map[Kind]string{
	Paragraph: "paragraph",
	Heading:   "heading",
	Bullet:    "bullet",
	Numbered:  "numbered",
	Title:     "title",
	Subtitle:  "subtitle",
	Rule:      "rule",
	Footer:    "footer",
	Skip:      "skip",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Block is one classified unit of the report. Level is set for headings only.
type Block struct {
	Kind  Kind   `json:"kind"`
	Level int    `json:"level,omitempty"`
	Text  string `json:"text,omitempty"`
}

// LineRule inspects one trimmed, non-blank line. ok reports a match; a
// matching rule that returns a Skip block drops the line.
type LineRule struct {
	Name  string
	Match func(line string) (b Block, ok bool)
}

// DefaultRules classify lines in strict precedence order. Numbered items
// only recognise a single leading digit 1-9, so "10. x" is a paragraph.
var DefaultRules = []LineRule{
	headingRule(3),
	headingRule(2),
	headingRule(1),
	bulletRule,
	{Name: "numbered", Match: matchSingleDigitNumber},
	underscoreRule,
	paragraphRule,
}

// MultiDigitRules are DefaultRules with numbered items of any width.
var MultiDigitRules = []LineRule{
	headingRule(3),
	headingRule(2),
	headingRule(1),
	bulletRule,
	{Name: "numbered", Match: matchMultiDigitNumber},
	underscoreRule,
	paragraphRule,
}

// Classify runs rules against line in order; the first match wins. It
// returns false for blank lines, skipped lines and lines no rule accepts.
func Classify(line string, rules []LineRule) (Block, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Block{}, false
	}
	for _, r := range rules {
		b, ok := r.Match(line)
		if !ok {
			continue
		}
		if b.Kind == Skip {
			return Block{}, false
		}
		return b, true
	}
	return Block{}, false
}

// Parse classifies every line of markdown. Never fails.
func Parse(markdown string, rules []LineRule) []Block {
	if rules == nil {
		rules = DefaultRules
	}
	var blocks []Block
	for _, line := range strings.Split(markdown, "\n") {
		if b, ok := Classify(line, rules); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func headingRule(level int) LineRule {
	prefix := strings.Repeat("#", level) + " "
	return LineRule{
		Name: prefix,
		Match: func(line string) (Block, bool) {
			if rest, ok := strings.CutPrefix(line, prefix); ok {
				return Block{Kind: Heading, Level: level, Text: rest}, true
			}
			return Block{}, false
		},
	}
}

var bulletRule = LineRule{
	Name: "bullet",
	Match: func(line string) (Block, bool) {
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			return Block{Kind: Bullet, Text: line[2:]}, true
		}
		return Block{}, false
	},
}

func matchSingleDigitNumber(line string) (Block, bool) {
	if len(line) < 3 || line[0] < '1' || line[0] > '9' || line[1:3] != ". " {
		return Block{}, false
	}
	return Block{Kind: Numbered, Text: line[3:]}, true
}

func matchMultiDigitNumber(line string) (Block, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(line[i:], ". ") {
		return Block{}, false
	}
	return Block{Kind: Numbered, Text: line[i+2:]}, true
}

// Lines starting with an underscore are template separators, never content.
var underscoreRule = LineRule{
	Name: "separator",
	Match: func(line string) (Block, bool) {
		if strings.HasPrefix(line, "_") {
			return Block{Kind: Skip}, true
		}
		return Block{}, false
	},
}

var paragraphRule = LineRule{
	Name: "paragraph",
	Match: func(line string) (Block, bool) {
		return Block{Kind: Paragraph, Text: line}, true
	},
}
