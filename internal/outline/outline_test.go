package outline

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"pyfold/internal/fold"
)

const sample = `import asyncio


@dataclass
class Point:
    """A point."""

    x: int

    def norm(self):
        def square(v):
            return v * v
        return square(self.x)


async def main():
    await asyncio.sleep(0)

text = """
def not_a_definition():
"""
`

func TestParseFindsNestedAndAsyncDefinitions(t *testing.T) {
	defs, err := Parse(context.Background(), []byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Definition{
		{Kind: KindClass, Name: "Point", StartLine: 4, EndLine: 12, Depth: 0, Decorated: true},
		{Kind: KindFunction, Name: "norm", StartLine: 9, EndLine: 12, Depth: 1},
		{Kind: KindFunction, Name: "square", StartLine: 10, EndLine: 11, Depth: 2},
		{Kind: KindAsyncFunction, Name: "main", StartLine: 15, EndLine: 16, Depth: 0},
	}
	if !reflect.DeepEqual(defs, want) {
		t.Fatalf("Parse =\n%+v\nwant\n%+v", defs, want)
	}
}

func TestCompareAgreesWithClassifier(t *testing.T) {
	defs, err := Parse(context.Background(), []byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	facts := fold.Scan(strings.Split(strings.TrimSuffix(sample, "\n"), "\n"))

	check := Compare(defs, facts)
	if !check.OK() {
		t.Fatalf("cross check failed: missed %v extra %v", check.Missed, check.Extra)
	}
}

func TestCompareReportsBothDirections(t *testing.T) {
	defs := []Definition{{Kind: KindFunction, Name: "f", StartLine: 1}}
	facts := []fold.LineFacts{{BeginsDefinition: true}, {}}

	check := Compare(defs, facts)
	if len(check.Missed) != 1 || check.Missed[0].Name != "f" {
		t.Fatalf("missed = %+v", check.Missed)
	}
	if !reflect.DeepEqual(check.Extra, []int{0}) {
		t.Fatalf("extra = %v", check.Extra)
	}
}

func TestDefinitionString(t *testing.T) {
	d := Definition{Kind: KindAsyncFunction, Name: "run", StartLine: 3, EndLine: 9, Depth: 1}
	if got := d.String(); got != "  async def run (3-9)" {
		t.Fatalf("String = %q", got)
	}
}
