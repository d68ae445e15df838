package readfile

import (
	"os"
	"strings"
)

// ReadLinesNormalized reads path as a buffer of lines. CRLF becomes LF and a
// final newline terminates the last line instead of starting an empty one.
func ReadLinesNormalized(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(data)), nil
}

func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}
