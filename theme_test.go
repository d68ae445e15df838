package main

import (
	"sort"
	"testing"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func TestLoadThemePalette_Known(t *testing.T) {
	palette, err := LoadThemePalette("dracula")
	if err != nil {
		t.Fatalf("expected dracula theme to load: %v", err)
	}
	if palette.Keyword == "" || palette.Text == "" || palette.SelectionBG == "" || palette.Guide == "" || palette.FoldedBG == "" {
		t.Fatalf("theme palette has empty core colors: %+v", palette)
	}
}

func TestLoadThemePalette_Unknown(t *testing.T) {
	if _, err := LoadThemePalette("this-theme-does-not-exist"); err == nil {
		t.Fatalf("expected unknown theme error")
	}
}

func TestLoadThemePalette_Alias(t *testing.T) {
	palette, err := LoadThemePalette("Solarized")
	if err != nil {
		t.Fatalf("expected solarized alias to load: %v", err)
	}
	if palette.Name != "solarized-dark" {
		t.Fatalf("name = %q, want solarized-dark", palette.Name)
	}
}

func TestThemeNamesSorted(t *testing.T) {
	names := themeNames()
	if len(names) == 0 || !sort.StringsAreSorted(names) {
		t.Fatalf("theme names not sorted: %v", names)
	}
}

func TestMixBlendsChannels(t *testing.T) {
	black := chroma.MustParseColour("#000000")
	white := chroma.MustParseColour("#FFFFFF")
	if got := mix(black, white, 0); got != black {
		t.Fatalf("mix at 0 = %s", got)
	}
	if got := mix(black, white, 1); got != white {
		t.Fatalf("mix at 1 = %s", got)
	}
	if got, want := mix(black, white, 0.5), chroma.NewColour(0x80, 0x80, 0x80); got != want {
		t.Fatalf("mix at 0.5 = %s, want %s", got, want)
	}
}

func TestFoldSurfacesStepAwayFromBackground(t *testing.T) {
	for _, name := range []string{"dracula", "github"} {
		style := styles.Get(name)
		palette, err := LoadThemePalette(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		bg := style.Get(chroma.Background).Background
		folded := chroma.MustParseColour(palette.FoldedBG)
		dark := bg.Brightness() < 0.5
		if dark && folded.Brightness() <= bg.Brightness() {
			t.Errorf("%s: folded background %s should be lighter than %s", name, palette.FoldedBG, bg)
		}
		if !dark && folded.Brightness() >= bg.Brightness() {
			t.Errorf("%s: folded background %s should be darker than %s", name, palette.FoldedBG, bg)
		}
	}
}
