package highlight

import (
	"slices"
	"unicode/utf8"
)

// lineSpans turns byte-offset spans on one line into rune spans covering
// the whole line. Where spans overlap, the one starting first wins; runes
// no span touches are TokenPlain. Adjacent runs of one category merge.
func lineSpans(text string, raw []rawSpan) []Span {
	if text == "" {
		return nil
	}

	// runeOf[b] is the rune index of the rune containing byte b.
	runeOf := make([]int, len(text)+1)
	n := 0
	for b := range text {
		for i := b; i < len(text) && (i == b || !utf8.RuneStart(text[i])); i++ {
			runeOf[i] = n
		}
		n++
	}
	runeOf[len(text)] = n

	ordered := slices.Clone(raw)
	slices.SortStableFunc(ordered, func(a, b rawSpan) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	cats := make([]TokenCategory, n)
	painted := make([]bool, n)
	for _, rs := range ordered {
		from := runeOf[min(max(rs.Start, 0), len(text))]
		to := runeOf[min(max(rs.End, 0), len(text))]
		for r := from; r < to; r++ {
			if !painted[r] {
				cats[r] = rs.Cat
				painted[r] = true
			}
		}
	}

	var out []Span
	for r, cat := range cats {
		if len(out) > 0 && out[len(out)-1].Cat == cat {
			out[len(out)-1].End = r + 1
			continue
		}
		out = append(out, Span{Start: r, End: r + 1, Cat: cat})
	}
	return out
}
