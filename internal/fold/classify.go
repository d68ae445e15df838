package fold

import (
	"strings"
	"unicode"
)

// LexState is the lexical state carried from one line to the next.
type LexState struct {
	InSingleQuoteString    bool
	InDoubleQuoteString    bool
	InSingleQuoteDocstring bool
	InDoubleQuoteDocstring bool

	ParenDepth   int
	BracketDepth int
	BraceDepth   int
}

func (s LexState) InString() bool {
	return s.InSingleQuoteString || s.InDoubleQuoteString || s.InSingleQuoteDocstring || s.InDoubleQuoteDocstring
}

// Nested reports whether any bracket depth is positive. Unbalanced closers
// drive a depth negative, which counts as not nested.
func (s LexState) Nested() bool {
	return s.ParenDepth > 0 || s.BracketDepth > 0 || s.BraceDepth > 0
}

// LineFacts describes one classified line.
type LineFacts struct {
	IndentColumn      int
	Blank             bool
	CommentOnly       bool
	BeginsTripleQuote bool
	// EndsTripleQuote is reported for callers; the sequencer tracks
	// docstring closes through LexState instead.
	EndsTripleQuote   bool
	BeginsDefinition  bool

	// State after the scan.
	Nested   bool
	InString bool
}

var definitionPrefixes = []string{"def ", "class ", "async def "}

// ClassifyLine scans one line, updating state in place.
func ClassifyLine(state *LexState, line string) LineFacts {
	line = strings.TrimRightFunc(line, unicode.IsSpace)

	startedInString := state.InString()
	startedNested := state.Nested()

	if line == "" {
		return LineFacts{
			Blank:    true,
			Nested:   startedNested,
			InString: startedInString,
		}
	}

	facts := LineFacts{IndentColumn: -1}
	n := len(line)

	for i := 0; i < n; i++ {
		c := line[i]
		inString := state.InString()

		if facts.IndentColumn < 0 && c != ' ' && c != '\t' {
			facts.IndentColumn = i
		}

		if !inString && c == '#' {
			facts.CommentOnly = i == facts.IndentColumn
			break
		}

		if inString && c == '\\' {
			i++
			continue
		}

		switch c {
		case '"':
			i += scanQuote(&facts, line, i, '"', &state.InDoubleQuoteString, &state.InDoubleQuoteDocstring, inString)
			continue
		case '\'':
			i += scanQuote(&facts, line, i, '\'', &state.InSingleQuoteString, &state.InSingleQuoteDocstring, inString)
			continue
		}

		if inString {
			continue
		}

		switch c {
		case '(':
			state.ParenDepth++
		case ')':
			state.ParenDepth--
		case '[':
			state.BracketDepth++
		case ']':
			state.BracketDepth--
		case '{':
			state.BraceDepth++
		case '}':
			state.BraceDepth--
		}
	}

	if facts.IndentColumn < 0 {
		facts.IndentColumn = 0
	}

	if !facts.CommentOnly && !startedInString && !startedNested {
		rest := line[facts.IndentColumn:]
		for _, prefix := range definitionPrefixes {
			if strings.HasPrefix(rest, prefix) {
				facts.BeginsDefinition = true
				break
			}
		}
	}

	facts.Nested = state.Nested()
	facts.InString = state.InString()
	return facts
}

// scanQuote handles a quote character at line[i] and returns how many extra
// bytes the delimiter consumed.
func scanQuote(facts *LineFacts, line string, i int, q byte, single *bool, triple *bool, inString bool) int {
	n := len(line)
	if i+2 < n && line[i+1] == q && line[i+2] == q {
		if *triple || !inString {
			if inString && i == n-3 {
				facts.EndsTripleQuote = true
			} else if !inString && i == facts.IndentColumn {
				facts.BeginsTripleQuote = true
			}
			*triple = !*triple
		}
		return 2
	}

	if *single || !inString {
		*single = !*single
	}
	return 0
}

// Scan classifies every line of a buffer in order.
func Scan(lines []string) []LineFacts {
	var state LexState
	facts := make([]LineFacts, len(lines))
	for i, line := range lines {
		facts[i] = ClassifyLine(&state, line)
	}
	return facts
}
