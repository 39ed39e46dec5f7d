package analysis

import (
	"sort"

	"github.com/banshee-data/powerlog/internal/protocol"
)

// Edges are the input transitions seen in a capture, as the time of the
// first sample carrying the new level.
type Edges struct {
	Rising  []float64
	Falling []float64
}

// FindEdges walks the input_pin column and records every level change.
func FindEdges(ms []protocol.Measurement) Edges {
	var e Edges
	if len(ms) == 0 {
		return e
	}
	prev := ms[0].DigitalInput
	for _, m := range ms[1:] {
		if m.DigitalInput == prev {
			continue
		}
		if m.DigitalInput {
			e.Rising = append(e.Rising, float64(m.Time))
		} else {
			e.Falling = append(e.Falling, float64(m.Time))
		}
		prev = m.DigitalInput
	}
	return e
}

// Bracketed reports whether the capture starts and ends with the input low,
// which sync patterns require.
func Bracketed(ms []protocol.Measurement) bool {
	return len(ms) > 0 && !ms[0].DigitalInput && !ms[len(ms)-1].DigitalInput
}

// Interval returns the measurements with start <= Time < end. ms must be in
// capture order.
func Interval(ms []protocol.Measurement, start, end float64) []protocol.Measurement {
	lo := sort.Search(len(ms), func(i int) bool { return float64(ms[i].Time) >= start })
	hi := sort.Search(len(ms), func(i int) bool { return float64(ms[i].Time) >= end })
	return ms[lo:hi]
}

// From returns the measurements with Time >= start.
func From(ms []protocol.Measurement, start float64) []protocol.Measurement {
	lo := sort.Search(len(ms), func(i int) bool { return float64(ms[i].Time) >= start })
	return ms[lo:]
}
