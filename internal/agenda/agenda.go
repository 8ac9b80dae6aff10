// Package agenda turns an attached agenda document into the plain text
// topic list that goes into the report prompt and header.
package agenda

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxChars caps the extracted agenda; longer text is cut at a line boundary.
const MaxChars = 4000

// ErrUnsupportedFormat is returned for extensions with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported agenda format")

// Extractor returns the agenda items of one document, in document order.
type Extractor interface {
	Items(r io.Reader) ([]string, error)
}

// SupportedExtensions lists the agenda document types accepted.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return TextExtractor{}, nil
	case ".md", ".markdown":
		return MarkdownExtractor{}, nil
	case ".html", ".htm":
		return HTMLExtractor{}, nil
	case ".pdf":
		return PDFExtractor{FallbackPdftotext: true}, nil
	case ".docx":
		return DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromFile extracts the agenda text of an attached document.
func FromFile(r io.Reader, filename string) (string, error) {
	ex, err := ForFile(filename)
	if err != nil {
		return "", err
	}
	items, err := ex.Items(r)
	if err != nil {
		return "", fmt.Errorf("read agenda %s: %w", filename, err)
	}
	return Join(items), nil
}

// Join normalises items into one line per topic, capped at MaxChars.
func Join(items []string) string {
	var sb strings.Builder
	for _, it := range items {
		it = strings.Join(strings.Fields(it), " ")
		if it == "" {
			continue
		}
		if sb.Len()+len(it)+1 > MaxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(it)
	}
	return sb.String()
}

// Merge combines free text typed by the user with text from a document.
func Merge(typed, fromFile string) string {
	typed, fromFile = strings.TrimSpace(typed), strings.TrimSpace(fromFile)
	switch {
	case typed == "":
		return fromFile
	case fromFile == "":
		return typed
	}
	return typed + "\n" + fromFile
}
