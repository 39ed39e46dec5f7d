package monitoring

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"
)

// Tail fans out formatted measurement lines to any number of live viewers.
// Publishing never blocks: a viewer that is not keeping up misses lines. It is
// an observer only and has no part in delivery to the sink.
type Tail struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closing     bool
}

// NewTail creates an empty Tail.
func NewTail() *Tail {
	return &Tail{subscribers: make(map[string]chan string)}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel for receiving lines. The channel ID is used
// to identify the unique channel when unsubscribing. Subscribing to a closed
// Tail returns an already closed channel.
func (t *Tail) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 64)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		close(ch)
		return id, ch
	}
	t.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (t *Tail) Unsubscribe(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.subscribers[id]; ok {
		close(ch)
		delete(t.subscribers, id)
	}
}

// Publish offers line to every subscriber without blocking.
func (t *Tail) Publish(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subscribers {
		select {
		case ch <- line:
		default:
			// if the channel is full skip so as not to stall the consumer
		}
	}
}

// Subscribers returns the number of active subscribers.
func (t *Tail) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

// Close closes all subscriber channels. Later subscriptions get closed channels.
func (t *Tail) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closing = true
	for id, ch := range t.subscribers {
		close(ch)
		delete(t.subscribers, id)
	}
}
