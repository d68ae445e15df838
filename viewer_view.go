package main

import (
	"fmt"
	"strings"

	"pyfold/internal/fold"
	"pyfold/internal/highlight"

	"github.com/charmbracelet/lipgloss"
)

func (m viewerModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	header := m.renderHeader()
	body := m.renderBody(m.width, m.bodyHeight())
	footer := m.help.View(m.keys)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m viewerModel) renderHeader() string {
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Text)).Background(lipgloss.Color(appTheme.StatusBG))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Error)).Background(lipgloss.Color(appTheme.StatusBG))

	line := m.currentLine()
	status := fmt.Sprintf(" %s  line %d/%d  level %d", m.path, line+1, len(m.lines), levelAt(m.levels, line))
	if m.status != "" {
		status += "  | " + m.status
	}
	status = truncateText(status, m.width)
	if m.errMsg != "" {
		rest := m.width - lipgloss.Width(status)
		if rest > 3 {
			return padRightANSI(barStyle.Render(status)+errStyle.Render(truncateText("  "+m.errMsg, rest)), m.width)
		}
	}
	return barStyle.Render(padRightANSI(status, m.width))
}

func (m viewerModel) renderBody(width int, height int) string {
	if len(m.visible) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted)).Width(width).Height(height)
		return emptyStyle.Render("empty file")
	}

	rows := make([]string, 0, height)
	end := min(len(m.visible), m.offset+height)
	for row := m.offset; row < end; row++ {
		rows = append(rows, m.renderRow(m.visible[row], row == m.cursor, width))
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

func (m viewerModel) renderRow(line int, selected bool, width int) string {
	gutterStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Gutter))
	markerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Accent))
	if selected {
		gutterStyle = gutterStyle.Background(lipgloss.Color(appTheme.SelectionBG))
		markerStyle = markerStyle.Background(lipgloss.Color(appTheme.SelectionBG))
	}

	marker := " "
	region, folded := m.folds.Owner(line)
	switch {
	case folded:
		marker = "▸"
	case startsRegion(m.folds.Regions(), line):
		marker = "▾"
	}

	level := levelAt(m.levels, line)
	prefix := gutterStyle.Render(fmt.Sprintf("%5d ", line+1)) + markerStyle.Render(marker) + gutterStyle.Render(" ")
	code := m.lines[line]

	spans := m.lineSpans(line)
	body := renderFoldGuides(level) + renderTokenLine(code, spans, selected)
	if folded {
		foldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Muted)).Background(lipgloss.Color(appTheme.FoldedBG))
		body += foldStyle.Render(fmt.Sprintf(" ··· %d lines ", region.End-region.Start+1))
	}

	row := truncateStyled(prefix+body, width)
	if selected {
		fill := lipgloss.NewStyle().Background(lipgloss.Color(appTheme.SelectionBG))
		if pad := width - lipgloss.Width(row); pad > 0 {
			row += fill.Render(strings.Repeat(" ", pad))
		}
	}
	return row
}

func (m viewerModel) lineSpans(line int) []highlight.Span {
	if line < 0 || line >= len(m.spans) {
		return nil
	}
	return m.spans[line]
}

func startsRegion(regions []fold.Region, line int) bool {
	for _, r := range regions {
		if r.Start == line {
			return true
		}
		if r.Start > line {
			return false
		}
	}
	return false
}
