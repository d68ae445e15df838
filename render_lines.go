package main

import (
	"fmt"
	"io"
	"strings"

	"pyfold/internal/highlight"

	"github.com/charmbracelet/lipgloss"
)

type listingOptions struct {
	Color      bool
	Width      int
	ShiftWidth int
}

// plainListingLine is the uncolored listing format: 0-based line number,
// fold level, then the code.
func plainListingLine(lineNum int, level int, code string) string {
	return fmt.Sprintf("%4d%3d: %s", lineNum, level, code)
}

func writeListing(w io.Writer, lines []string, levels []int, spans [][]highlight.Span, opts listingOptions) error {
	for i, line := range lines {
		level := 0
		if i < len(levels) {
			level = levels[i]
		}

		var out string
		if opts.Color {
			var lineSpans []highlight.Span
			if i < len(spans) {
				lineSpans = spans[i]
			}
			out = renderListingLine(i, level, line, lineSpans, opts)
		} else {
			out = plainListingLine(i, level, line)
			if opts.Width > 0 {
				out = truncateText(expandTabs(out, opts.ShiftWidth), opts.Width)
			}
		}

		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func renderListingLine(lineNum int, level int, code string, spans []highlight.Span, opts listingOptions) string {
	gutterStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Gutter))
	levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Level))

	prefix := gutterStyle.Render(fmt.Sprintf("%4d", lineNum)) + levelStyle.Render(fmt.Sprintf("%3d", level)) + gutterStyle.Render(": ")
	body := renderFoldGuides(level) + renderTokenLine(code, spans, false)
	if opts.Width > 0 {
		return truncateStyled(prefix+body, opts.Width)
	}
	return prefix + body
}

// renderFoldGuides draws one bar per fold level.
func renderFoldGuides(level int) string {
	if level <= 0 {
		return ""
	}
	guideStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Guide))
	return guideStyle.Render(strings.Repeat("│", level)) + " "
}

func truncateStyled(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func renderTokenLine(text string, spans []highlight.Span, selected bool) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if len(spans) == 0 {
		spans = []highlight.Span{{Start: 0, End: len(runes), Cat: highlight.TokenPlain}}
	}

	var b strings.Builder
	for _, span := range spans {
		start := clamp(span.Start, 0, len(runes))
		end := clamp(span.End, 0, len(runes))
		if end <= start {
			continue
		}
		b.WriteString(tokenStyle(span.Cat, selected).Render(string(runes[start:end])))
	}

	return b.String()
}

func tokenStyle(cat highlight.TokenCategory, selected bool) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text))
	if selected {
		style = style.Background(lipgloss.Color(appTheme.SelectionBG))
	}

	switch cat {
	case highlight.TokenKeyword:
		return style.Foreground(lipgloss.Color(appTheme.Keyword))
	case highlight.TokenType:
		return style.Foreground(lipgloss.Color(appTheme.Type))
	case highlight.TokenFunction:
		return style.Foreground(lipgloss.Color(appTheme.Function))
	case highlight.TokenString:
		return style.Foreground(lipgloss.Color(appTheme.String))
	case highlight.TokenNumber:
		return style.Foreground(lipgloss.Color(appTheme.Number))
	case highlight.TokenComment:
		return style.Foreground(lipgloss.Color(appTheme.Comment))
	case highlight.TokenOperator:
		return style.Foreground(lipgloss.Color(appTheme.Operator)).Faint(true)
	case highlight.TokenError:
		return style.Foreground(lipgloss.Color(appTheme.Error)).Bold(true)
	default:
		return style
	}
}
