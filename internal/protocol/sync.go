package protocol

import "io"

const (
	// MarkerByte is the preamble byte.
	MarkerByte byte = 0xFF
	// MarkerRun is how many consecutive marker bytes make up the preamble.
	MarkerRun = 3
)

// Synchronize consumes bytes until MarkerRun consecutive marker bytes have
// been read, leaving r positioned on the first header byte. It returns the
// number of bytes consumed.
func Synchronize(r io.ByteReader) (int, error) {
	consumed, run := 0, 0
	for run < MarkerRun {
		b, err := r.ReadByte()
		if err != nil {
			return consumed, err
		}
		consumed++
		if b == MarkerByte {
			run++
		} else {
			run = 0
		}
	}
	return consumed, nil
}
