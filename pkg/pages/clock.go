package pages

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Clock is the process-wide wall-clock ticker feeding the home screen's
// time and date bindings. Subscribers receive a session-data snapshot
// once a minute and immediately on subscription.
type Clock struct {
	mu   sync.Mutex
	subs []func(data map[string]any)
	now  func() time.Time
}

// NewClock creates a clock reading the system time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Subscribe registers a consumer and pushes the current snapshot to it
// right away, so a freshly built page never shows an empty clock.
func (c *Clock) Subscribe(fn func(data map[string]any)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	now := c.now()
	c.mu.Unlock()
	fn(ClockData(now))
}

// Start ticks until ctx is done, waking on the minute boundary.
func (c *Clock) Start(ctx context.Context) {
	go func() {
		for {
			now := c.now()
			next := now.Truncate(time.Minute).Add(time.Minute)
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				c.broadcast(c.now())
			}
		}
	}()
}

func (c *Clock) broadcast(now time.Time) {
	c.mu.Lock()
	subs := make([]func(map[string]any), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	data := ClockData(now)
	for _, fn := range subs {
		fn(data)
	}
}

// ClockData renders a time as the session parameters the home screen
// widgets bind.
func ClockData(now time.Time) map[string]any {
	return map[string]any{
		"time_string":    now.Format("15:04"),
		"weekday_string": now.Format("Monday"),
		"month_string":   now.Format("January"),
		"day_string":     strconv.Itoa(now.Day()),
		"year_string":    strconv.Itoa(now.Year()),
	}
}
