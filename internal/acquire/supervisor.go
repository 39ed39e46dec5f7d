package acquire

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/protocol"
)

// DefaultQueueCapacity is the delivery channel capacity used when Options
// leaves it unset.
const DefaultQueueCapacity = 10 * 1024

// Task identifies one of the two supervised goroutines.
type Task int

const (
	TaskProducer Task = iota + 1
	TaskConsumer
)

func (t Task) String() string {
	switch t {
	case TaskProducer:
		return "producer"
	case TaskConsumer:
		return "consumer"
	default:
		return fmt.Sprintf("Task(%d)", int(t))
	}
}

// Outcome is the terminal state of a session.
type Outcome int

const (
	// ProducerFailed means the device side ended the session.
	ProducerFailed Outcome = iota + 1
	// ConsumerFailed means the sink side ended the session.
	ConsumerFailed
	// ShutdownComplete means the session was interrupted from outside.
	ShutdownComplete
)

func (o Outcome) String() string {
	switch o {
	case ProducerFailed:
		return "producer-failed"
	case ConsumerFailed:
		return "consumer-failed"
	case ShutdownComplete:
		return "shutdown-complete"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Options configure a Supervisor.
type Options struct {
	// QueueCapacity bounds the delivery channel. Zero means
	// DefaultQueueCapacity.
	QueueCapacity int

	// DrainOnShutdown lets the consumer empty the channel after the producer
	// stops, instead of being cancelled with it. Measurements still queued
	// are otherwise discarded.
	DrainOnShutdown bool
}

// Result describes how a session ended.
type Result struct {
	Outcome     Outcome
	First       Task
	ProducerErr error
	ConsumerErr error
	Stats       protocol.Stats
	Written     uint64
}

// Err returns the error that ended the session, or nil after an external
// shutdown.
func (r Result) Err() error {
	switch r.Outcome {
	case ProducerFailed:
		return fmt.Errorf("producer: %w", r.ProducerErr)
	case ConsumerFailed:
		return fmt.Errorf("consumer: %w", r.ConsumerErr)
	default:
		return nil
	}
}

// Supervisor runs a producer and a consumer against one delivery channel.
type Supervisor struct {
	producer *Producer
	consumer *Consumer
	opts     Options
}

// NewSupervisor wires p and c together.
func NewSupervisor(p *Producer, c *Consumer, opts Options) *Supervisor {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	return &Supervisor{producer: p, consumer: c, opts: opts}
}

type taskResult struct {
	task Task
	err  error
}

// Run starts both tasks and blocks until the session is over. Whichever task
// terminates first decides the outcome and the other one is cancelled, unless
// DrainOnShutdown lets the consumer finish the queue. Cancelling ctx
// interrupts the session and yields ShutdownComplete.
func (s *Supervisor) Run(ctx context.Context) Result {
	ch := make(chan protocol.Measurement, s.opts.QueueCapacity)

	pctx, cancelProducer := context.WithCancel(ctx)
	defer cancelProducer()

	// A draining consumer must not see the interrupt; it stops when the
	// producer closes the channel.
	cparent := ctx
	if s.opts.DrainOnShutdown {
		cparent = context.WithoutCancel(ctx)
	}
	cctx, cancelConsumer := context.WithCancel(cparent)
	defer cancelConsumer()

	done := make(chan taskResult, 2)
	go func() {
		done <- taskResult{TaskProducer, s.producer.Run(pctx, ch)}
	}()
	go func() {
		done <- taskResult{TaskConsumer, s.consumer.Run(cctx, ch)}
	}()

	first := <-done
	var second taskResult
	switch {
	case first.task == TaskConsumer && first.err == nil:
		// The consumer only returns nil on a closed channel, so the producer
		// has already finished and is the real first.
		second = first
		first = <-done
	case first.task == TaskProducer && s.opts.DrainOnShutdown:
		monitoring.Logf("producer stopped, draining %d queued measurements", len(ch))
		second = <-done
	case first.task == TaskProducer:
		cancelConsumer()
		second = <-done
	default:
		cancelProducer()
		second = <-done
	}

	res := Result{
		First:   first.task,
		Stats:   s.producer.Stats(),
		Written: s.consumer.Written(),
	}
	for _, r := range []taskResult{first, second} {
		if r.task == TaskProducer {
			res.ProducerErr = r.err
		} else {
			res.ConsumerErr = r.err
		}
	}

	switch {
	case ctx.Err() != nil && (first.err == nil || errors.Is(first.err, ctx.Err())):
		res.Outcome = ShutdownComplete
	case first.task == TaskProducer:
		res.Outcome = ProducerFailed
	default:
		res.Outcome = ConsumerFailed
	}
	return res
}
