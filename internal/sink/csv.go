package sink

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/powerlog/internal/fsutil"
	"github.com/banshee-data/powerlog/internal/protocol"
)

// CSVHeader is the first line of every CSV capture.
const CSVHeader = "time_s,power_mw,input_pin"

// AppendRecord appends the CSV record for m, without a line terminator.
// Time uses the shortest decimal that round-trips the float32.
func AppendRecord(dst []byte, m protocol.Measurement) []byte {
	dst = strconv.AppendFloat(dst, float64(m.Time), 'f', -1, 32)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(m.Value), 10)
	if m.DigitalInput {
		return append(dst, ",1"...)
	}
	return append(dst, ",0"...)
}

// FormatRecord returns the CSV record for m.
func FormatRecord(m protocol.Measurement) string {
	return string(AppendRecord(nil, m))
}

// CSV writes one line per measurement. Every line is handed to the file as
// soon as it is formatted, so a reader tailing the file sees whole records
// and a write error surfaces on the measurement that caused it.
type CSV struct {
	w      io.WriteCloser
	line   []byte
	closed bool
}

// CreateCSV creates path (and its directory) on fs and writes the header.
func CreateCSV(fs fsutil.FileSystem, path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	c := NewCSV(f)
	if _, err := io.WriteString(f, CSVHeader+"\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return c, nil
}

// NewCSV writes records to w. The header is the caller's business.
func NewCSV(w io.WriteCloser) *CSV {
	return &CSV{w: w, line: make([]byte, 0, 32)}
}

// Write appends one record line.
func (c *CSV) Write(m protocol.Measurement) error {
	if c.closed {
		return errClosed
	}
	c.line = append(AppendRecord(c.line[:0], m), '\n')
	if _, err := c.w.Write(c.line); err != nil {
		return err
	}
	return nil
}

// Close closes the file.
func (c *CSV) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.w.Close()
}
