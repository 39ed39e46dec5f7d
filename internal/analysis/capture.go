// Package analysis works on recorded captures: it finds the digital input
// edges the device reported and summarises power inside the windows they
// delimit.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/powerlog/internal/protocol"
	"github.com/banshee-data/powerlog/internal/sink"
)

// ErrEmptyCapture is returned when a capture holds no measurements.
var ErrEmptyCapture = errors.New("capture contains no measurements")

// ReadCSV parses a capture written by the CSV sink.
func ReadCSV(r io.Reader) ([]protocol.Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyCapture
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if got := strings.Join(header, ","); got != sink.CSVHeader {
		return nil, fmt.Errorf("unexpected header %q, want %q", got, sink.CSVHeader)
	}

	var out []protocol.Measurement
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		t, err := strconv.ParseFloat(rec[0], 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad time_s %q: %w", line, rec[0], err)
		}
		v, err := strconv.ParseUint(rec[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad power_mw %q: %w", line, rec[1], err)
		}
		var pin bool
		switch rec[2] {
		case "0":
		case "1":
			pin = true
		default:
			return nil, fmt.Errorf("line %d: bad input_pin %q", line, rec[2])
		}
		out = append(out, protocol.Measurement{Time: float32(t), Value: uint16(v), DigitalInput: pin})
	}
	if len(out) == 0 {
		return nil, ErrEmptyCapture
	}
	return out, nil
}
