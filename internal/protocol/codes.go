package protocol

import "fmt"

// Code is one 2-byte big-endian binary unit.
type Code uint16

// Reserved code boundaries. These are fixed by the firmware.
const (
	// MaxSampleCode is the largest code carrying a measurement value.
	MaxSampleCode Code = 0xFFEF
	// CodeInputLow reports a falling edge on the digital input.
	CodeInputLow Code = 0xFFF0
	// CodeInputHigh reports a rising edge on the digital input.
	CodeInputHigh Code = 0xFFF1
)

// Kind is the classification of a Code.
type Kind int

const (
	KindSample Kind = iota
	KindInputLow
	KindInputHigh
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindInputLow:
		return "input-low"
	case KindInputHigh:
		return "input-high"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Classify maps a code onto its Kind.
func Classify(c Code) Kind {
	switch {
	case c <= MaxSampleCode:
		return KindSample
	case c == CodeInputLow:
		return KindInputLow
	case c == CodeInputHigh:
		return KindInputHigh
	default:
		return KindMalformed
	}
}

// Measurement is one decoded sample. Time is seconds since the session clock
// started; DigitalInput is the input state when the sample was decoded.
type Measurement struct {
	Time         float32
	Value        uint16
	DigitalInput bool
}
