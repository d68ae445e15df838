package highlight

import (
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

func chromaSpans(lines []string, source string) ([][]rawSpan, bool) {
	lexer := lexers.Get("python")
	if lexer == nil {
		return nil, false
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return nil, false
	}

	raw := make([][]rawSpan, len(lines))
	row, col := 0, 0
	for _, tok := range it.Tokens() {
		cat := chromaCategory(tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				row++
				col = 0
			}
			if row >= len(lines) {
				break
			}
			if part == "" {
				continue
			}
			raw[row] = append(raw[row], rawSpan{Start: col, End: col + len(part), Cat: cat})
			col += len(part)
		}
	}
	return raw, true
}

func chromaCategory(tt chroma.TokenType) TokenCategory {
	switch {
	case tt == chroma.Error:
		return TokenError
	case tt.InCategory(chroma.Comment):
		return TokenComment
	case tt.InSubCategory(chroma.LiteralString):
		return TokenString
	case tt.InSubCategory(chroma.LiteralNumber), tt == chroma.KeywordConstant:
		return TokenNumber
	case tt == chroma.KeywordType, tt == chroma.NameClass, tt == chroma.NameBuiltin:
		return TokenType
	case tt.InCategory(chroma.Keyword), tt == chroma.OperatorWord:
		return TokenKeyword
	case tt == chroma.NameFunction, tt == chroma.NameFunctionMagic, tt == chroma.NameDecorator:
		return TokenFunction
	case tt.InCategory(chroma.Operator), tt == chroma.Punctuation:
		return TokenOperator
	default:
		return TokenPlain
	}
}
