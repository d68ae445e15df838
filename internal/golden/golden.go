// Package golden reads, writes and compares fold-level golden files.
//
// A golden file sits next to its source as "<source>.testdata" and holds one
// decimal fold level per line, in line order.
package golden

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const Suffix = ".testdata"

var ErrMalformed = errors.New("golden: malformed fold level")

// PathFor returns the golden file path for a source file.
func PathFor(source string) string {
	return source + Suffix
}

// SourceFor returns the source path for a golden file, or false if path does
// not carry the golden suffix.
func SourceFor(path string) (string, bool) {
	if !strings.HasSuffix(path, Suffix) || len(path) == len(Suffix) {
		return "", false
	}
	return strings.TrimSuffix(path, Suffix), true
}

func Read(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var levels []int
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		level, err := strconv.Atoi(text)
		if err != nil || level < 0 {
			return nil, fmt.Errorf("%w: %s:%d: %q", ErrMalformed, path, lineNum, text)
		}
		levels = append(levels, level)
		lineNum++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return levels, nil
}

// Write stores levels at path, replacing any existing file atomically.
func Write(path string, levels []int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(f)
	for _, level := range levels {
		writer.WriteString(strconv.Itoa(level))
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Mismatch is one line whose computed level differs from the golden one.
type Mismatch struct {
	Line int
	Got  int
	Want int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("line %d: computed %d, expected %d", m.Line, m.Got, m.Want)
}

// Report is the outcome of comparing computed levels to golden levels.
type Report struct {
	GotLines   int
	WantLines  int
	Mismatches []Mismatch
}

func (r Report) LengthMismatch() bool {
	return r.GotLines != r.WantLines
}

func (r Report) OK() bool {
	return !r.LengthMismatch() && len(r.Mismatches) == 0
}

// Compare checks every line both sequences share; it never stops at the
// first mismatch.
func Compare(got []int, want []int) Report {
	report := Report{GotLines: len(got), WantLines: len(want)}
	for i := range min(len(got), len(want)) {
		if got[i] != want[i] {
			report.Mismatches = append(report.Mismatches, Mismatch{Line: i, Got: got[i], Want: want[i]})
		}
	}
	return report
}

// Lines renders the report as human readable lines, empty when OK.
func (r Report) Lines() []string {
	var out []string
	if r.LengthMismatch() {
		out = append(out, fmt.Sprintf("line count: computed %d, expected %d", r.GotLines, r.WantLines))
	}
	for _, m := range r.Mismatches {
		out = append(out, m.String())
	}
	return out
}
