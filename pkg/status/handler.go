package status

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HandlerFunc receives the translated status event and its payload.
// The coordinator's UpdateStatus is the production implementation.
type HandlerFunc func(event string, data map[string]any)

// queueCapacity bounds each sub-handler's work queue.
const queueCapacity = 100

type queueItem struct {
	event       string
	data        map[string]any
	persistence time.Duration
}

// eventHandler is one status sub-handler: a serial work queue with a
// dedicated worker, plus a reset timer that clears the handler's
// display state after a quiet period.
type eventHandler struct {
	name       string
	resetEvent string
	resetData  map[string]any
	fn         HandlerFunc
	timeout    time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	timestamp time.Time

	queue  chan queueItem
	logger *slog.Logger
}

func newEventHandler(
	name, resetEvent string,
	resetData map[string]any,
	fn HandlerFunc,
	timeout time.Duration,
	logger *slog.Logger,
) *eventHandler {
	return &eventHandler{
		name:       name,
		resetEvent: resetEvent,
		resetData:  resetData,
		fn:         fn,
		timeout:    timeout,
		queue:      make(chan queueItem, queueCapacity),
		logger:     logger.With("handler", name),
	}
}

// start launches the worker. Items run strictly in order; after each
// invocation the worker holds for the item's persistence so queued
// pieces appear paced instead of batched.
func (h *eventHandler) start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				h.cancelTimer()
				return
			case item := <-h.queue:
				h.fn(item.event, item.data)
				if item.persistence > 0 {
					select {
					case <-ctx.Done():
						h.cancelTimer()
						return
					case <-time.After(item.persistence):
					}
				}
			}
		}
	}()
}

// enqueue offers work to the handler without blocking the bus loop.
func (h *eventHandler) enqueue(event string, data map[string]any, persistence time.Duration) {
	select {
	case h.queue <- queueItem{event: event, data: data, persistence: persistence}:
	default:
		h.logger.Warn("status queue full, event dropped", "event", event)
	}
}

// touch records activity, pushing the next reset out.
func (h *eventHandler) touch() {
	h.mu.Lock()
	h.timestamp = time.Now()
	h.mu.Unlock()
}

// armReset schedules the reset to fire after the timeout. A zero
// timeout means the handler's default. Re-arming cancels the pending
// timer.
func (h *eventHandler) armReset(timeout time.Duration) {
	if timeout <= 0 {
		timeout = h.timeout
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(timeout, func() { h.reset(timeout) })
}

func (h *eventHandler) cancelTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// reset clears the handler's display state, but only when no activity
// arrived since the timer was armed.
func (h *eventHandler) reset(timeout time.Duration) {
	h.mu.Lock()
	if h.timestamp.IsZero() || time.Since(h.timestamp) < timeout {
		h.mu.Unlock()
		return
	}
	elapsed := time.Since(h.timestamp)
	h.timestamp = time.Time{}
	h.timer = nil
	h.mu.Unlock()

	h.logger.Info("status reset after quiet period", "elapsed", elapsed)
	h.fn(h.resetEvent, h.resetData)
}
