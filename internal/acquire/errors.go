package acquire

import (
	"fmt"

	"github.com/banshee-data/powerlog/internal/protocol"
)

// SinkWriteError reports a measurement the sink refused. It ends the
// consumer.
type SinkWriteError struct {
	Measurement protocol.Measurement
	Err         error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink write failed at t=%g: %v", e.Measurement.Time, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
