package agenda

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestFromFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		input    string
		want     string
	}{
		{
			name:     "text",
			filename: "agenda.txt",
			input:    "Budget 2025\n\n   Road works  \nAOB\n",
			want:     "Budget 2025\nRoad works\nAOB",
		},
		{
			name:     "markdown",
			filename: "ordre-du-jour.MD",
			input:    "# Council meeting\n\n1. **Budget** 2025\n2. Road\n   works\n\n- AOB\n\n```\nignored code\n```\n",
			want:     "Council meeting\nBudget 2025\nRoad works\nAOB",
		},
		{
			name:     "html",
			filename: "agenda.html",
			input:    "<html><head><title>x</title><style>p{}</style></head><body><nav>menu</nav><h2>Agenda</h2><ul><li>Budget</li><li>Roads <b>and</b> bridges</li></ul><script>var x</script></body></html>",
			want:     "Agenda\nBudget\nRoads and bridges",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromFile(strings.NewReader(tc.input), tc.filename)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFromFile_DOCX(t *testing.T) {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().AddText("Budget 2025")
	d.AddParagraph()
	p := d.AddParagraph()
	p.AddText("Road ").Bold()
	p.AddText("works")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	got, err := FromFile(&buf, "agenda.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Budget 2025\nRoad works" {
		t.Errorf("unexpected agenda %q", got)
	}
}

func TestFromFile_Errors(t *testing.T) {
	if _, err := FromFile(strings.NewReader("a,b"), "agenda.csv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := FromFile(strings.NewReader("not a zip"), "agenda.docx"); err == nil {
		t.Error("expected error for corrupt docx")
	}
	if _, err := (PDFExtractor{}).Items(strings.NewReader("not a pdf")); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}

func TestJoinCapsLength(t *testing.T) {
	items := []string{strings.Repeat("a", MaxChars-10), "short", "tail"}
	got := Join(items)
	if len(got) > MaxChars {
		t.Fatalf("expected at most %d chars, got %d", MaxChars, len(got))
	}
	if strings.Contains(got, "tail") {
		t.Error("expected items beyond the cap to be dropped")
	}
}

func TestJoinCollapsesWhitespace(t *testing.T) {
	if got := Join([]string{"  a \t b ", "", "c"}); got != "a b\nc" {
		t.Errorf("unexpected join %q", got)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		typed, file, want string
	}{
		{"", "", ""},
		{"Budget", "", "Budget"},
		{"", "Roads", "Roads"},
		{" Budget ", "Roads\n", "Budget\nRoads"},
	}
	for _, tc := range tests {
		if got := Merge(tc.typed, tc.file); got != tc.want {
			t.Errorf("Merge(%q, %q) = %q, want %q", tc.typed, tc.file, got, tc.want)
		}
	}
}

func TestTextExtractorItems(t *testing.T) {
	got, err := TextExtractor{}.Items(strings.NewReader("\n one \n\ntwo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("unexpected items %v", got)
	}
}
