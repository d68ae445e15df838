package highlight

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

type rawSpan struct {
	Start int
	End   int
	Cat   TokenCategory
}

// collectLeafSpans appends byte spans, relative to each line, for every leaf
// under node. String nodes are emitted whole so their content is covered
// whatever the grammar's child layout.
func collectLeafSpans(node *sitter.Node, src []byte, lines []string, starts []int, parentType string, grandType string, out [][]rawSpan) {
	if node == nil {
		return
	}

	nodeType := strings.ToLower(node.Type())
	if node.ChildCount() == 0 || nodeType == "string" {
		var cat TokenCategory
		if nodeType == "string" {
			cat = TokenString
		} else {
			cat = classifyLeaf(node, parentType, grandType, src[node.StartByte():node.EndByte()])
		}
		appendNodeSpan(node, lines, starts, cat, out)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectLeafSpans(node.Child(i), src, lines, starts, nodeType, parentType, out)
	}
}

func appendNodeSpan(node *sitter.Node, lines []string, starts []int, cat TokenCategory, out [][]rawSpan) {
	start := int(node.StartByte())
	end := int(node.EndByte())
	firstRow := int(node.StartPoint().Row)
	lastRow := int(node.EndPoint().Row)

	for row := max(firstRow, 0); row <= lastRow && row < len(lines); row++ {
		lineStart := starts[row]
		lineEnd := lineStart + len(lines[row])
		clippedStart := max(start, lineStart)
		clippedEnd := min(end, lineEnd)
		if clippedStart >= clippedEnd {
			continue
		}
		out[row] = append(out[row], rawSpan{
			Start: clippedStart - lineStart,
			End:   clippedEnd - lineStart,
			Cat:   cat,
		})
	}
}

func classifyLeaf(node *sitter.Node, parentType string, grandType string, text []byte) TokenCategory {
	nodeType := strings.ToLower(node.Type())
	lexeme := strings.TrimSpace(string(text))

	if nodeType == "error" || node.IsMissing() {
		return TokenError
	}
	if nodeType == "comment" {
		return TokenComment
	}
	if strings.Contains(nodeType, "string") || nodeType == "escape_sequence" {
		return TokenString
	}
	switch nodeType {
	case "integer", "float", "true", "false", "none", "ellipsis":
		return TokenNumber
	}

	if nodeType == "identifier" {
		switch {
		case parentType == "class_definition" || parentType == "type" || grandType == "type":
			return TokenType
		case parentType == "function_definition" || parentType == "call" || grandType == "call" || parentType == "decorator" || grandType == "decorator":
			return TokenFunction
		case isLikelyConstant(lexeme):
			return TokenNumber
		}
		return TokenPlain
	}

	if !node.IsNamed() {
		if keywordSet[lexeme] {
			return TokenKeyword
		}
		if looksLikeOperator(lexeme) {
			return TokenOperator
		}
	}

	return TokenPlain
}

func isLikelyConstant(s string) bool {
	if len(s) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case r == '_':
			continue
		case unicode.IsDigit(r):
			continue
		case unicode.IsLetter(r):
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		default:
			return false
		}
	}
	return hasLetter
}

func looksLikeOperator(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch r {
		case '+', '-', '*', '/', '%', '=', '!', '<', '>', '&', '|', '^', '~', ':', ';', ',', '.', '@', '(', ')', '[', ']', '{', '}':
		default:
			return false
		}
	}
	return true
}

var keywordSet = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "case": true, "class": true, "continue": true, "def": true,
	"del": true, "elif": true, "else": true, "except": true, "exec": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "match": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "print": true,
	"raise": true, "return": true, "try": true, "type": true, "while": true,
	"with": true, "yield": true,
}
