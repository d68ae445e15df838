package main

import (
	"fmt"

	"pyfold/internal/fold"
	"pyfold/internal/highlight"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type viewerKeys struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Toggle    key.Binding
	FoldAll   key.Binding
	UnfoldAll key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultViewerKeys() viewerKeys {
	return viewerKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:       key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "enter", "tab"), key.WithHelp("space", "toggle fold")),
		FoldAll:   key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "fold all")),
		UnfoldAll: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "unfold all")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k viewerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reload, k.Help, k.Quit}
}

func (k viewerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Toggle, k.FoldAll, k.UnfoldAll},
		{k.Reload, k.Help, k.Quit},
	}
}

// viewerModel shows one file with its folds. Cursor indexes visible rows.
type viewerModel struct {
	app  *app
	path string

	width  int
	height int

	lines   []string
	levels  []int
	spans   [][]highlight.Span
	folds   *fold.FoldState
	visible []int

	cursor int
	offset int

	keys viewerKeys
	help help.Model

	status string
	errMsg string
}

func newViewerModel(a *app, res foldResult) viewerModel {
	h := help.New()
	h.Styles.ShortKey = h.Styles.ShortKey.Foreground(lipgloss.Color(appTheme.Accent))
	h.Styles.FullKey = h.Styles.FullKey.Foreground(lipgloss.Color(appTheme.Accent))

	m := viewerModel{
		app:   a,
		path:  res.Path,
		keys:  defaultViewerKeys(),
		help:  h,
		folds: fold.NewFoldState(res.Levels),
	}
	m.setResult(res)
	m.status = fmt.Sprintf("%d lines, %d regions", len(res.Lines), len(m.folds.Regions()))
	return m
}

func (m *viewerModel) setResult(res foldResult) {
	m.lines = res.Lines
	m.levels = res.Levels
	m.folds.SetLevels(res.Levels)
	if !m.app.cfg.NoColor {
		m.spans = m.app.highlighter.Lines(res.Lines)
	}
	m.refreshVisible()
}

func (m *viewerModel) refreshVisible() {
	line := m.currentLine()
	m.visible = m.folds.VisibleLines(len(m.lines))
	m.cursor = m.rowFor(line)
	m.ensureCursor()
}

// rowFor returns the visible row showing line, or the folded row hiding it.
func (m viewerModel) rowFor(line int) int {
	target := line
	if r, ok := m.folds.Owner(line); ok {
		target = r.Start
	}
	for row, l := range m.visible {
		if l >= target {
			return row
		}
	}
	return max(len(m.visible)-1, 0)
}

func (m viewerModel) currentLine() int {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0
	}
	return m.visible[m.cursor]
}

func (m viewerModel) Init() tea.Cmd {
	return nil
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursor()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.PageUp):
			m.moveCursor(-m.bodyHeight())
		case key.Matches(msg, m.keys.PageDown):
			m.moveCursor(m.bodyHeight())
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
			m.ensureCursor()
		case key.Matches(msg, m.keys.Bottom):
			m.cursor = len(m.visible) - 1
			m.ensureCursor()
		case key.Matches(msg, m.keys.Toggle):
			line := m.currentLine()
			if !m.folds.Toggle(line) {
				m.status = fmt.Sprintf("no fold at line %d", line+1)
				return m, nil
			}
			m.status = ""
			m.refreshVisible()
		case key.Matches(msg, m.keys.FoldAll):
			m.folds.FoldAll()
			m.refreshVisible()
		case key.Matches(msg, m.keys.UnfoldAll):
			m.folds.UnfoldAll()
			m.refreshVisible()
		case key.Matches(msg, m.keys.Reload):
			m.reload()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m *viewerModel) reload() {
	res, err := m.app.computeFile(m.path)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.setResult(res)
	if res.Hit {
		m.status = "reloaded: unchanged, cache hit"
		return
	}
	m.status = fmt.Sprintf("reloaded: recompute #%d, %d lines scanned total", res.Stats.Recomputes, res.Stats.LinesScanned)
}

func (m *viewerModel) moveCursor(delta int) {
	m.cursor += delta
	m.ensureCursor()
}

func (m *viewerModel) ensureCursor() {
	if len(m.visible) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(m.visible)-1)

	rows := m.bodyHeight()
	if rows <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = clamp(m.offset, 0, max(len(m.visible)-rows, 0))
}

func (m viewerModel) bodyHeight() int {
	return max(m.height-1-lipgloss.Height(m.help.View(m.keys)), 1)
}

func runViewer(a *app, path string) error {
	res, err := a.computeFile(path)
	if err != nil {
		return err
	}
	p := tea.NewProgram(newViewerModel(a, res), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
