package main

import (
	"fmt"
	"sort"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// ThemePalette holds the hex colors the listing and viewer paint with.
type ThemePalette struct {
	Name string

	// Surfaces.
	Text        string
	StatusBG    string
	SelectionBG string
	FoldedBG    string

	// Fold furniture.
	Muted  string
	Gutter string
	Guide  string
	Level  string
	Accent string

	// Token categories.
	Keyword  string
	Type     string
	Function string
	String   string
	Number   string
	Comment  string
	Operator string
	Error    string
}

const defaultTheme = "nord"

var (
	fallbackBG  = chroma.MustParseColour("#2E3440")
	fallbackFG  = chroma.MustParseColour("#D8DEE9")
	fallbackErr = chroma.MustParseColour("#BF616A")
)

var themeAliases = map[string]string{
	"solarized": "solarized-dark",
	"one-dark":  "onedark",
}

var appTheme = mustDefaultTheme()

func SetTheme(name string) error {
	palette, err := LoadThemePalette(name)
	if err != nil {
		return err
	}
	appTheme = palette
	return nil
}

func LoadThemePalette(name string) (ThemePalette, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = defaultTheme
	}
	if alias, ok := themeAliases[key]; ok {
		key = alias
	}
	style, ok := styles.Registry[key]
	if !ok || style == nil {
		return ThemePalette{}, fmt.Errorf("unknown theme %q (pyfold --themes lists them)", name)
	}
	return paletteFrom(key, style), nil
}

func themeNames() []string {
	names := styles.Names()
	sort.Strings(names)
	return names
}

// tokenRoles lists, per token category, the chroma types to take the color
// from, most specific first. A category none of them sets uses the text color.
var tokenRoles = []struct {
	slot  func(*ThemePalette) *string
	types []chroma.TokenType
}{
	{func(p *ThemePalette) *string { return &p.Keyword }, []chroma.TokenType{chroma.Keyword}},
	{func(p *ThemePalette) *string { return &p.Type }, []chroma.TokenType{chroma.NameClass, chroma.KeywordType, chroma.NameBuiltin}},
	{func(p *ThemePalette) *string { return &p.Function }, []chroma.TokenType{chroma.NameFunction, chroma.NameDecorator}},
	{func(p *ThemePalette) *string { return &p.String }, []chroma.TokenType{chroma.LiteralStringDoc, chroma.LiteralString}},
	{func(p *ThemePalette) *string { return &p.Number }, []chroma.TokenType{chroma.LiteralNumber, chroma.NameConstant}},
	{func(p *ThemePalette) *string { return &p.Operator }, []chroma.TokenType{chroma.Operator, chroma.Punctuation}},
}

func paletteFrom(name string, style *chroma.Style) ThemePalette {
	bg := firstColour(style, true, chroma.Background)
	if !bg.IsSet() {
		bg = fallbackBG
	}
	fg := firstColour(style, false, chroma.Text, chroma.Background)
	if !fg.IsSet() {
		fg = fallbackFG
	}
	comment := firstColour(style, false, chroma.Comment)
	if !comment.IsSet() {
		comment = mix(fg, bg, 0.45)
	}

	// Surfaces step away from the background, lighter on dark themes and
	// darker on light ones.
	surface := func(step float64) string { return bg.BrightenOrDarken(step).String() }
	selection := firstColour(style, true, chroma.LineHighlight)
	if !selection.IsSet() || selection == bg {
		selection = bg.BrightenOrDarken(0.14)
	}
	gutter := firstColour(style, false, chroma.LineNumbers)
	if !gutter.IsSet() {
		gutter = comment
	}
	accent := firstColour(style, false, chroma.NameFunction, chroma.Keyword)
	if !accent.IsSet() {
		accent = fg
	}
	errColour := firstColour(style, false, chroma.Error, chroma.GenericError)
	if !errColour.IsSet() {
		errColour = fallbackErr
	}

	p := ThemePalette{
		Name:        name,
		Text:        fg.String(),
		StatusBG:    surface(0.08),
		SelectionBG: selection.String(),
		FoldedBG:    surface(0.2),
		Muted:       mix(comment, bg, 0.2).String(),
		Gutter:      gutter.String(),
		Guide:       mix(comment, bg, 0.5).String(),
		Level:       mix(accent, fg, 0.3).String(),
		Accent:      accent.String(),
		Comment:     comment.String(),
		Error:       errColour.String(),
	}
	for _, role := range tokenRoles {
		c := firstColour(style, false, role.types...)
		if !c.IsSet() {
			c = fg
		}
		*role.slot(&p) = c.String()
	}
	return p
}

// firstColour returns the first set foreground (or background) colour among
// types, or the zero Colour.
func firstColour(style *chroma.Style, background bool, types ...chroma.TokenType) chroma.Colour {
	for _, tt := range types {
		entry := style.Get(tt)
		c := entry.Colour
		if background {
			c = entry.Background
		}
		if c.IsSet() {
			return c
		}
	}
	return 0
}

// mix blends a towards b by t in [0, 1].
func mix(a chroma.Colour, b chroma.Colour, t float64) chroma.Colour {
	ch := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return chroma.NewColour(ch(a.Red(), b.Red()), ch(a.Green(), b.Green()), ch(a.Blue(), b.Blue()))
}

func mustDefaultTheme() ThemePalette {
	p, err := LoadThemePalette(defaultTheme)
	if err != nil {
		return paletteFrom("fallback", chroma.MustNewStyle("fallback", chroma.StyleEntries{
			chroma.Background: "#D8DEE9 bg:#2E3440",
		}))
	}
	return p
}
