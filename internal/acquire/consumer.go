package acquire

import (
	"context"
	"sync/atomic"

	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/protocol"
)

// Sink persists measurements.
type Sink interface {
	Write(protocol.Measurement) error
	Close() error
}

// Tap observes each measurement after the sink accepted it.
type Tap func(protocol.Measurement)

// Consumer drains the delivery channel into a sink.
type Consumer struct {
	sink    Sink
	tap     Tap
	written atomic.Uint64
}

// NewConsumer returns a consumer writing to sink. tap may be nil.
func NewConsumer(sink Sink, tap Tap) *Consumer {
	return &Consumer{sink: sink, tap: tap}
}

// Written returns the number of measurements the sink has accepted.
func (c *Consumer) Written() uint64 {
	return c.written.Load()
}

// Run forwards measurements from in to the sink in arrival order. It returns
// nil once in is closed and drained, ctx.Err() on cancellation, and a
// *SinkWriteError when the sink fails. The sink is not closed by Run.
func (c *Consumer) Run(ctx context.Context, in <-chan protocol.Measurement) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case m, ok := <-in:
			if !ok {
				return nil
			}
			if err := c.sink.Write(m); err != nil {
				monitoring.SinkErrorsTotal.Inc()
				return &SinkWriteError{Measurement: m, Err: err}
			}
			c.written.Add(1)
			monitoring.SinkWritesTotal.Inc()
			monitoring.QueueDepth.Set(float64(len(in)))
			if c.tap != nil {
				c.tap(m)
			}
		}
	}
}
