package fold

import "sort"

// Region is a maximal run of lines whose fold level is at least Level.
type Region struct {
	Start  int
	End    int
	Level  int
	Folded bool
}

// Regions derives nested regions from fold levels, ordered by start line and
// then outermost first.
func Regions(levels []int) []Region {
	var regions []Region
	var open []int // start line of the open region at depth d+1

	closeTo := func(depth int, end int) {
		for len(open) > depth {
			top := len(open)
			regions = append(regions, Region{Start: open[top-1], End: end, Level: top})
			open = open[:top-1]
		}
	}

	for i, level := range levels {
		if level < 0 {
			level = 0
		}
		closeTo(level, i-1)
		for len(open) < level {
			open = append(open, i)
		}
	}
	closeTo(0, len(levels)-1)

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Start == regions[j].Start {
			return regions[i].Level < regions[j].Level
		}
		return regions[i].Start < regions[j].Start
	})
	return regions
}

// FoldState tracks which regions are folded.
type FoldState struct {
	regions []Region
}

func NewFoldState(levels []int) *FoldState {
	return &FoldState{regions: Regions(levels)}
}

// SetLevels replaces the regions, keeping regions folded whose start and
// level survive.
func (fs *FoldState) SetLevels(levels []int) {
	type key struct{ start, level int }
	folded := make(map[key]bool)
	for _, r := range fs.regions {
		if r.Folded {
			folded[key{r.Start, r.Level}] = true
		}
	}
	regions := Regions(levels)
	for i := range regions {
		regions[i].Folded = folded[key{regions[i].Start, regions[i].Level}]
	}
	fs.regions = regions
}

func (fs *FoldState) Regions() []Region {
	return fs.regions
}

// Toggle flips the innermost region containing line.
func (fs *FoldState) Toggle(line int) bool {
	best := -1
	for i, r := range fs.regions {
		if line >= r.Start && line <= r.End {
			if best < 0 || r.Level > fs.regions[best].Level {
				best = i
			}
		}
	}
	if best < 0 {
		return false
	}
	fs.regions[best].Folded = !fs.regions[best].Folded
	return true
}

func (fs *FoldState) FoldAll() {
	for i := range fs.regions {
		fs.regions[i].Folded = true
	}
}

func (fs *FoldState) UnfoldAll() {
	for i := range fs.regions {
		fs.regions[i].Folded = false
	}
}

// Owner returns the outermost folded region that contains line.
func (fs *FoldState) Owner(line int) (Region, bool) {
	for _, r := range fs.regions {
		if r.Folded && line >= r.Start && line <= r.End {
			return r, true
		}
	}
	return Region{}, false
}

// VisibleLines returns the lines to display. A folded region collapses to
// its first line.
func (fs *FoldState) VisibleLines(totalLines int) []int {
	visible := make([]int, 0, totalLines)
	next := 0
	// Regions are ordered by start, outermost first, so the first folded
	// region at or after next is the outermost one hiding lines there.
	for _, r := range fs.regions {
		if !r.Folded || r.Start < next || r.Start >= totalLines {
			continue
		}
		for ; next < r.Start; next++ {
			visible = append(visible, next)
		}
		visible = append(visible, r.Start)
		next = r.End + 1
	}
	for ; next < totalLines; next++ {
		visible = append(visible, next)
	}
	return visible
}
