package acquire

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/protocol"
	"github.com/banshee-data/powerlog/internal/timeutil"
)

// Stream is the device side of a session. serialport.Source implements it.
type Stream interface {
	io.ByteReader
	protocol.LineReader
	protocol.ExactReader
	io.Closer
}

// statsEvery is how many samples pass between stats snapshots.
const statsEvery = 1024

// Producer reads the device stream and emits decoded measurements.
type Producer struct {
	src   Stream
	clock timeutil.Clock
	stats atomic.Pointer[protocol.Stats]
}

// NewProducer returns a producer reading from src. A nil clock uses the real
// clock.
func NewProducer(src Stream, clock timeutil.Clock) *Producer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	p := &Producer{src: src, clock: clock}
	p.stats.Store(&protocol.Stats{})
	return p
}

// Stats returns the most recent snapshot of the session counters. It is safe
// to call from any goroutine; the snapshot is exact once Run has returned.
func (p *Producer) Stats() protocol.Stats {
	return *p.stats.Load()
}

func (p *Producer) snapshot(d *protocol.Decoder) {
	s := d.Stats()
	p.stats.Store(&s)
}

// Run synchronizes on the preamble, skips the header, starts the session
// clock and then decodes units until the stream fails or ctx is cancelled.
// Samples are sent on out in stream order; a full channel suspends the
// producer. Run closes out when it returns.
//
// The stream is closed when Run returns. A read blocked on the device is
// released by closing the stream early when ctx is cancelled, in which case
// Run returns ctx.Err().
func (p *Producer) Run(ctx context.Context, out chan<- protocol.Measurement) (err error) {
	defer close(out)
	defer p.src.Close()

	stop := context.AfterFunc(ctx, func() { p.src.Close() })
	defer stop()

	defer func() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
	}()

	n, err := protocol.Synchronize(p.src)
	if err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}
	monitoring.Logf("synchronized after %d bytes", n)

	if _, err := protocol.SkipHeader(p.src); err != nil {
		return fmt.Errorf("skip header: %w", err)
	}

	dec := protocol.NewDecoder(p.clock)
	defer p.snapshot(dec)

	for {
		code, err := protocol.ReadCode(p.src)
		if err != nil {
			return fmt.Errorf("read unit: %w", err)
		}

		m, kind := dec.Decode(code)
		switch kind {
		case protocol.KindSample:
			monitoring.SamplesTotal.Inc()
			select {
			case out <- m:
			case <-ctx.Done():
				return ctx.Err()
			}
			monitoring.QueueDepth.Set(float64(len(out)))
			if dec.Stats().Samples%statsEvery == 0 {
				p.snapshot(dec)
			}
			continue
		case protocol.KindInputLow:
			monitoring.InputEdgesTotal.WithLabelValues(monitoring.EdgeFalling).Inc()
		case protocol.KindInputHigh:
			monitoring.InputEdgesTotal.WithLabelValues(monitoring.EdgeRising).Inc()
		case protocol.KindMalformed:
			monitoring.MalformedUnitsTotal.Inc()
		}
		p.snapshot(dec)
	}
}
