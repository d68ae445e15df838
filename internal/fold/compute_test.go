package fold

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestComputeFoldLevels(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		shiftWidth int
		want       []int
	}{
		{
			name: "one-line docstring",
			src: `def egg():
    """Docstring."""
    x = 4`,
			want: []int{0, 1, 1},
		},
		{
			name: "no docstring",
			src: `def egg():
    x = 4`,
			want: []int{0, 1},
		},
		{
			name: "continuation header",
			src: `def egg(
    a, b):
    x = 4`,
			want: []int{0, 0, 1},
		},
		{
			name: "nested definitions",
			src: `def a():
    def b():
        pass`,
			want: []int{0, 1, 2},
		},
		{
			name: "nested definitions narrow indent",
			src: `def a():
  def b():
    pass`,
			shiftWidth: 2,
			want:       []int{0, 1, 2},
		},
		{
			name: "multi-line docstring keeps header level",
			src: `def f():
    """Doc
    more.
    """
    return 1`,
			want: []int{0, 0, 0, 0, 1},
		},
		{
			name: "blank lines carry",
			src: `def f():

    x = 1

`,
			want: []int{0, 0, 1, 1, 1},
		},
		{
			name: "comment right after header",
			src: `def f():
    # note
    pass`,
			want: []int{0, 1, 1},
		},
		{
			name: "single-quote string instead of docstring",
			src: `def f():
    'not a docstring'
    pass`,
			want: []int{0, 1, 1},
		},
		{
			name: "async def",
			src: `async def f():
    await g()`,
			want: []int{0, 1},
		},
		{
			name: "no decrease on dedent",
			src: `class A:
    """Doc."""

    def m(self):
        return 1

x = 1`,
			want: []int{0, 1, 1, 1, 2, 2, 2},
		},
		{
			name: "definition quoted out in a string",
			src: `s = """
def f():
"""
x = 1`,
			want: []int{0, 0, 0, 0},
		},
		{
			name: "definition inside brackets",
			src: `calls = [
def_like,
]`,
			want: []int{0, 0, 0},
		},
		{
			name: "header with default string spanning lines",
			src: `def f(a="""x
""", b=1):
    return a`,
			want: []int{0, 0, 1},
		},
		{
			name: "single blank line",
			src:  ``,
			want: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := tt.shiftWidth
			if sw == 0 {
				sw = DefaultShiftWidth
			}
			lines := strings.Split(tt.src, "\n")
			got, cache, err := ComputeFoldLevels(lines, sw, nil)
			if err != nil {
				t.Fatalf("ComputeFoldLevels returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("levels = %v, want %v", got, tt.want)
			}
			if cache.Stats().Recomputes != 1 {
				t.Fatalf("recomputes = %d, want 1", cache.Stats().Recomputes)
			}
		})
	}
}

func TestComputeFoldLevelsEmptyBuffer(t *testing.T) {
	got, cache, err := ComputeFoldLevels(nil, DefaultShiftWidth, nil)
	if err != nil {
		t.Fatalf("ComputeFoldLevels returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("levels = %v, want empty", got)
	}
	if cache == nil {
		t.Fatalf("expected a cache for the empty buffer")
	}
}

func TestComputeFoldLevelsRejectsShiftWidth(t *testing.T) {
	for _, sw := range []int{0, -4} {
		levels, cache, err := ComputeFoldLevels([]string{"def f():"}, sw, nil)
		if !errors.Is(err, ErrInvalidShiftWidth) {
			t.Fatalf("shift width %d: err = %v, want ErrInvalidShiftWidth", sw, err)
		}
		if levels != nil || cache != nil {
			t.Fatalf("shift width %d: expected no partial results", sw)
		}
	}
}

func TestComputeFoldLevelsMalformedInput(t *testing.T) {
	lines := []string{
		`def f(:`,
		`    """never closed`,
		`    ))]]}}`,
		`def g():`,
		`    'dangling`,
	}
	got, _, err := ComputeFoldLevels(lines, DefaultShiftWidth, nil)
	if err != nil {
		t.Fatalf("ComputeFoldLevels returned error: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("len(levels) = %d, want %d", len(got), len(lines))
	}
	for i, level := range got {
		if level < 0 {
			t.Fatalf("line %d: negative level %d", i, level)
		}
	}
}

func TestBlankLineCarriesPreviousLevel(t *testing.T) {
	lines := strings.Split(sampleModule(3), "\n")
	got, err := Levels(lines, DefaultShiftWidth)
	if err != nil {
		t.Fatalf("Levels returned error: %v", err)
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" && got[i] != got[i-1] {
			t.Fatalf("blank line %d has level %d, previous line has %d", i, got[i], got[i-1])
		}
	}
}

func TestCacheHitSkipsScanning(t *testing.T) {
	lines := strings.Split(sampleModule(5), "\n")

	first, cache, err := ComputeFoldLevels(lines, DefaultShiftWidth, nil)
	if err != nil {
		t.Fatalf("first ComputeFoldLevels: %v", err)
	}
	before := cache.Stats()

	copied := append([]string(nil), lines...)
	second, again, err := ComputeFoldLevels(copied, DefaultShiftWidth, cache)
	if err != nil {
		t.Fatalf("second ComputeFoldLevels: %v", err)
	}
	if again != cache {
		t.Fatalf("expected the previous cache to be returned on a hit")
	}
	if again.Stats() != before {
		t.Fatalf("stats changed on hit: %+v -> %+v", before, again.Stats())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("levels differ between calls")
	}
}

func TestCacheInvalidatedBySingleCharacter(t *testing.T) {
	lines := strings.Split(sampleModule(2), "\n")
	_, cache, err := ComputeFoldLevels(lines, DefaultShiftWidth, nil)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}

	edited := append([]string(nil), lines...)
	edited[len(edited)-1] += "x"
	_, next, err := ComputeFoldLevels(edited, DefaultShiftWidth, cache)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}
	if next == cache {
		t.Fatalf("expected a new cache after an edit")
	}
	if got := next.Stats().Recomputes; got != 2 {
		t.Fatalf("recomputes = %d, want 2", got)
	}
}

func TestCacheMissOnShiftWidthChange(t *testing.T) {
	lines := []string{"def a():", "  def b():", "    pass"}
	_, cache, err := ComputeFoldLevels(lines, 4, nil)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}
	got, next, err := ComputeFoldLevels(lines, 2, cache)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}
	if next.Stats().Recomputes != 2 {
		t.Fatalf("recomputes = %d, want 2", next.Stats().Recomputes)
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("levels = %v, want %v", got, want)
	}
}

func TestIncrementalMatchesFullPass(t *testing.T) {
	base := strings.Split(sampleModule(6), "\n")
	mid := len(base) / 2

	edits := []struct {
		name string
		edit func([]string) []string
	}{
		{"change first line", func(l []string) []string { l[0] = "import sys"; return l }},
		{"change middle body line", func(l []string) []string { l[mid] += "  # edited"; return l }},
		{"change last line", func(l []string) []string { l[len(l)-1] = "    return None"; return l }},
		{"insert definition", func(l []string) []string {
			return insertLines(l, mid, "def inserted():", "    pass")
		}},
		{"open a docstring", func(l []string) []string { return insertLines(l, mid, `x = """`) }},
		{"open a bracket", func(l []string) []string { return insertLines(l, 3, "values = (") }},
		{"delete lines", func(l []string) []string { return append(l[:mid], l[mid+5:]...) }},
		{"append lines", func(l []string) []string { return append(l, "", "class Tail:", "    pass") }},
		{"truncate", func(l []string) []string { return l[:mid] }},
		{"clear", func(l []string) []string { return nil }},
	}

	for _, tt := range edits {
		t.Run(tt.name, func(t *testing.T) {
			_, cache, err := ComputeFoldLevels(base, DefaultShiftWidth, nil)
			if err != nil {
				t.Fatalf("ComputeFoldLevels: %v", err)
			}

			edited := tt.edit(append([]string(nil), base...))
			got, next, err := ComputeFoldLevels(edited, DefaultShiftWidth, cache)
			if err != nil {
				t.Fatalf("incremental ComputeFoldLevels: %v", err)
			}
			want, err := Levels(edited, DefaultShiftWidth)
			if err != nil {
				t.Fatalf("Levels: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("incremental levels differ from full pass\n got %v\nwant %v", got, want)
			}
			if len(got) != len(edited) {
				t.Fatalf("len(levels) = %d, want %d", len(got), len(edited))
			}

			// The next pass from the incremental cache must agree too.
			again, _, err := ComputeFoldLevels(base, DefaultShiftWidth, next)
			if err != nil {
				t.Fatalf("ComputeFoldLevels back to base: %v", err)
			}
			full, _ := Levels(base, DefaultShiftWidth)
			if !reflect.DeepEqual(again, full) {
				t.Fatalf("levels after reverting the edit differ from full pass")
			}
		})
	}
}

func TestIncrementalScansOnlyAroundLocalEdit(t *testing.T) {
	base := strings.Split(sampleModule(20), "\n")
	_, cache, err := ComputeFoldLevels(base, DefaultShiftWidth, nil)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}
	scannedBefore := cache.Stats().LinesScanned
	if scannedBefore != len(base) {
		t.Fatalf("initial scan = %d lines, want %d", scannedBefore, len(base))
	}

	idx := -1
	for i, line := range base {
		if line == "    x = 4" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("sample has no body line to edit")
	}

	edited := append([]string(nil), base...)
	edited[idx] = "    x = 5"
	_, next, err := ComputeFoldLevels(edited, DefaultShiftWidth, cache)
	if err != nil {
		t.Fatalf("ComputeFoldLevels: %v", err)
	}
	if scanned := next.Stats().LinesScanned - scannedBefore; scanned > 2 {
		t.Fatalf("scanned %d lines for a one-line edit, want at most 2", scanned)
	}
}

func insertLines(lines []string, at int, extra ...string) []string {
	out := make([]string, 0, len(lines)+len(extra))
	out = append(out, lines[:at]...)
	out = append(out, extra...)
	return append(out, lines[at:]...)
}

// sampleModule builds a module with n repetitions of a class, a function
// with a multi-line docstring and a multi-line header.
func sampleModule(n int) string {
	var b strings.Builder
	b.WriteString("import os\n\n")
	for i := range n {
		fmt.Fprintf(&b, "class C%d(object):\n", i)
		b.WriteString("    '''Shape.\n\n    More.\n    '''\n\n")
		b.WriteString("    def area(self):\n        return 0\n\n")
		fmt.Fprintf(&b, "def f%d(\n        a,\n        b):\n", i)
		b.WriteString("    \"\"\"Doc.\"\"\"\n")
		b.WriteString("    x = 4\n")
		b.WriteString("    values = {\n        'k': [1, 2],\n    }\n\n")
	}
	b.WriteString("def last():\n    return os.sep")
	return b.String()
}
