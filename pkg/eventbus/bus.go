// Package eventbus provides the in-process publish/subscribe layer that
// backs the SSE fan-out. Each subscriber owns a bounded queue; a
// subscriber that cannot keep up is dropped rather than allowed to stall
// the publisher.
package eventbus

import (
	"log/slog"
	"sync"
)

// DefaultQueueSize is the per-subscriber queue capacity.
const DefaultQueueSize = 10

// Frame is one server-sent event: an event id and a single-line payload.
type Frame struct {
	Event string
	Data  string
}

// String formats the frame for the wire.
func (f Frame) String() string {
	if f.Event == "" {
		return "data: " + f.Data + "\n\n"
	}
	return "event: " + f.Event + "\ndata: " + f.Data + "\n\n"
}

// Subscription is a handle to a subscriber queue. Frames are received
// from C until the subscription is dropped, at which point C is closed.
type Subscription struct {
	C chan Frame
}

// Bus fans frames out to all live subscriptions.
type Bus struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	queueSize int
	logger    *slog.Logger

	// onDrop, if set, is called once per dropped subscription.
	onDrop func()
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueSize sets the per-subscriber queue capacity.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithDropCallback registers a callback invoked when a slow subscriber
// is dropped.
func WithDropCallback(fn func()) Option {
	return func(b *Bus) {
		b.onDrop = fn
	}
}

// New creates a Bus.
func New(logger *slog.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		subs:      make(map[*Subscription]struct{}),
		queueSize: DefaultQueueSize,
		logger:    logger.With("component", "eventbus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Listen registers a new subscription.
func (b *Bus) Listen() *Subscription {
	sub := &Subscription{C: make(chan Frame, b.queueSize)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Drop removes a subscription and closes its channel. Dropping an
// already-removed subscription is a no-op.
func (b *Bus) Drop(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drop(sub)
}

func (b *Bus) drop(sub *Subscription) {
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.C)
}

// Publish offers the frame to every subscription without blocking.
// A subscription whose queue is full is considered dead and removed;
// the frame is silently lost for that subscriber only.
func (b *Bus) Publish(frame Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.C <- frame:
		default:
			b.logger.Warn("subscriber queue full, dropping subscription",
				"event", frame.Event)
			b.drop(sub)
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
