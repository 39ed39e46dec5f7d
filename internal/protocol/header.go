package protocol

import (
	"strings"

	"github.com/banshee-data/powerlog/internal/monitoring"
)

// StartSentinel marks the last header line.
const StartSentinel = "start"

// LineReader reads one '\n' terminated line.
type LineReader interface {
	ReadLine() (string, error)
}

// SkipHeader reads and logs header lines up to and including the first one
// containing StartSentinel. Nothing after that line is consumed. It returns
// the number of lines read.
func SkipHeader(r LineReader) (int, error) {
	lines := 0
	for {
		line, err := r.ReadLine()
		if err != nil {
			return lines, err
		}
		lines++
		monitoring.Logf(">> %s", strings.TrimRight(line, "\r\n"))
		if strings.Contains(line, StartSentinel) {
			return lines, nil
		}
	}
}
