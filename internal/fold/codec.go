package fold

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

const cacheCodecVersion = 1

type cacheWire struct {
	Version     int
	Fingerprint uint64
	ShiftWidth  int
	Levels      []int
	LineHashes  []uint64
	States      []passState
	Stats       Stats
}

func (c *Cache) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	wire := cacheWire{
		Version:     cacheCodecVersion,
		Fingerprint: c.fingerprint,
		ShiftWidth:  c.shiftWidth,
		Levels:      c.levels,
		LineHashes:  c.lineHashes,
		States:      c.states,
		Stats:       c.stats,
	}
	if err := gob.NewEncoder(&buf).Encode(&wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Cache) GobDecode(data []byte) error {
	var wire cacheWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}
	if wire.Version != cacheCodecVersion {
		return fmt.Errorf("fold: cache version %d, want %d", wire.Version, cacheCodecVersion)
	}
	n := len(wire.Levels)
	if len(wire.LineHashes) != n || len(wire.States) != n {
		return fmt.Errorf("fold: corrupt cache: %d levels, %d hashes, %d states", n, len(wire.LineHashes), len(wire.States))
	}
	if wire.ShiftWidth <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShiftWidth, wire.ShiftWidth)
	}

	*c = Cache{
		fingerprint: wire.Fingerprint,
		shiftWidth:  wire.ShiftWidth,
		levels:      wire.Levels,
		lineHashes:  wire.LineHashes,
		states:      wire.States,
		stats:       wire.Stats,
	}
	return nil
}
