package protocol

import (
	"encoding/binary"
	"time"

	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/timeutil"
)

// ExactReader fills a buffer completely or fails.
type ExactReader interface {
	ReadExact(buf []byte) error
}

// ReadCode reads one big-endian binary unit.
func ReadCode(r ExactReader) (Code, error) {
	var buf [2]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return Code(binary.BigEndian.Uint16(buf[:])), nil
}

// Stats counts what a Decoder has seen during its session.
type Stats struct {
	Samples      uint64 `json:"samples"`
	RisingEdges  uint64 `json:"rising_edges"`
	FallingEdges uint64 `json:"falling_edges"`
	Malformed    uint64 `json:"malformed"`
}

// Decoder turns codes into measurements. It owns the session state: the
// session clock, the digital input level and the counters. A Decoder belongs
// to one session and one goroutine.
type Decoder struct {
	clock timeutil.Clock
	start time.Time
	input bool
	stats Stats
}

// NewDecoder starts the session clock and returns a decoder with the input
// low and all counters at zero.
func NewDecoder(clock timeutil.Clock) *Decoder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Decoder{clock: clock, start: clock.Now()}
}

// Decode classifies one code. For a sample it returns the measurement
// stamped with the elapsed session time and current input level; for every
// other kind the returned Measurement is the zero value and must be ignored.
func (d *Decoder) Decode(c Code) (Measurement, Kind) {
	kind := Classify(c)
	switch kind {
	case KindSample:
		d.stats.Samples++
		return Measurement{
			Time:         float32(d.clock.Since(d.start).Seconds()),
			Value:        uint16(c),
			DigitalInput: d.input,
		}, kind
	case KindInputLow:
		d.input = false
		d.stats.FallingEdges++
		monitoring.Logf("input low (falling edge %d)", d.stats.FallingEdges)
	case KindInputHigh:
		d.input = true
		d.stats.RisingEdges++
		monitoring.Logf("input high")
	default:
		d.stats.Malformed++
		monitoring.Logf("bad data: %x", uint16(c))
	}
	return Measurement{}, kind
}

// Input returns the current digital input level.
func (d *Decoder) Input() bool { return d.input }

// Started returns the instant the session clock started.
func (d *Decoder) Started() time.Time { return d.start }

// Stats returns a copy of the session counters.
func (d *Decoder) Stats() Stats { return d.stats }
