// Package fold computes per-line fold levels for Python source.
//
// A single forward pass classifies each line lexically (strings, comments,
// bracket nesting, indentation) and assigns levels from definition headers
// and their docstrings. Results are threaded through a caller-owned Cache so
// an unchanged buffer is never rescanned and an edited one is rescanned only
// from the first changed line until the pass state converges again.
package fold

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const DefaultShiftWidth = 4

var ErrInvalidShiftWidth = errors.New("fold: shift width must be positive")

// Stats counts work done over a cache lineage.
type Stats struct {
	Recomputes   int
	LinesScanned int
}

// Cache holds the result of a previous pass. The zero value and nil are
// both valid empty caches. A Cache is immutable once returned.
type Cache struct {
	fingerprint uint64
	shiftWidth  int
	levels      []int
	lineHashes  []uint64
	states      []passState
	stats       Stats
}

func (c *Cache) Levels() []int {
	if c == nil {
		return nil
	}
	return c.levels
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.stats
}

// Analyzer is the configurable entry point.
type Analyzer struct {
	ShiftWidth int
	Logger     *zap.Logger
}

// ComputeFoldLevels returns one fold level per line, reusing prev when the
// buffer is unchanged. The returned levels must not be modified.
func ComputeFoldLevels(lines []string, shiftWidth int, prev *Cache) ([]int, *Cache, error) {
	a := Analyzer{ShiftWidth: shiftWidth}
	return a.Compute(lines, prev)
}

// Levels computes fold levels without a cache.
func Levels(lines []string, shiftWidth int) ([]int, error) {
	levels, _, err := ComputeFoldLevels(lines, shiftWidth, nil)
	return levels, err
}

func (a Analyzer) Compute(lines []string, prev *Cache) ([]int, *Cache, error) {
	if a.ShiftWidth <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidShiftWidth, a.ShiftWidth)
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hashes := make([]uint64, len(lines))
	for i, line := range lines {
		hashes[i] = xxhash.Sum64String(line)
	}
	fp := fingerprint(hashes, a.ShiftWidth)

	if prev != nil && prev.fingerprint == fp && prev.shiftWidth == a.ShiftWidth && len(prev.levels) == len(lines) {
		logger.Debug("fold cache hit", zap.Int("lines", len(lines)))
		return prev.levels, prev, nil
	}

	next := &Cache{
		fingerprint: fp,
		shiftWidth:  a.ShiftWidth,
		levels:      make([]int, len(lines)),
		lineHashes:  hashes,
		states:      make([]passState, len(lines)),
	}
	if prev != nil {
		next.stats = prev.stats
	}
	next.stats.Recomputes++

	start := 0
	var old *Cache
	if prev != nil && prev.shiftWidth == a.ShiftWidth && len(prev.states) == len(prev.levels) {
		old = prev
		start = commonPrefix(old.lineHashes, hashes)
		copy(next.levels, old.levels[:start])
		copy(next.states, old.states[:start])
	}

	seq := newSequencer(a.ShiftWidth, logger)
	if start > 0 {
		seq.state = old.states[start-1]
	}

	// Old and new line i+delta/i agree from suffixStart on.
	suffixStart := len(lines)
	delta := 0
	if old != nil {
		delta = len(old.lineHashes) - len(lines)
		suffixStart = len(lines) - commonSuffix(old.lineHashes[start:], hashes[start:])
	}

	scanned := 0
	for i := start; i < len(lines); i++ {
		next.levels[i] = seq.step(i, lines[i])
		next.states[i] = seq.state
		scanned++

		if old != nil && i >= suffixStart && seq.state == old.states[i+delta] {
			copy(next.levels[i+1:], old.levels[i+delta+1:])
			copy(next.states[i+1:], old.states[i+delta+1:])
			break
		}
	}
	next.stats.LinesScanned += scanned

	logger.Debug("fold recompute",
		zap.Int("lines", len(lines)),
		zap.Int("start", start),
		zap.Int("scanned", scanned),
		zap.Int("recomputes", next.stats.Recomputes),
	)
	return next.levels, next, nil
}

func fingerprint(hashes []uint64, shiftWidth int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(hashes)))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(shiftWidth))
	_, _ = d.Write(buf[:])
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(buf[:], h)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func commonPrefix(a []uint64, b []uint64) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonSuffix(a []uint64, b []uint64) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[len(a)-1-i] != b[len(b)-1-i] {
			return i
		}
	}
	return n
}
