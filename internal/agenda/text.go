package agenda

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor treats every non-blank line as one topic.
type TextExtractor struct{}

func (TextExtractor) Items(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var items []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			items = append(items, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
