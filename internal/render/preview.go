package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
)

// PreviewHTML converts the report markdown to an HTML fragment. Raw HTML in
// the markdown is not passed through.
func PreviewHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// PreviewPage wraps PreviewHTML in a standalone page.
func PreviewPage(title, markdown string) (string, error) {
	body, err := PreviewHTML(markdown)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="max-width:48rem;margin:2rem auto;font-family:sans-serif">
%s</body></html>
`, html.EscapeString(title), body), nil
}
