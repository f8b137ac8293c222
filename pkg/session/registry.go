// Package session tracks connected browser sessions by opaque id and
// evicts the ones whose pings stop arriving.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// graceFactor multiplies the sweep interval when computing the idle
// deadline. Three sweep intervals of slack means a single delayed ping
// never evicts a live browser.
const graceFactor = 3

// Registry tracks sessions and their last ping timestamps.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]time.Time

	pingPeriod time.Duration
	checkWait  time.Duration
	logger     *slog.Logger

	// onEvict is called outside the registry lock for every session the
	// sweeper removes.
	onEvict func(id string)

	done      chan struct{}
	closeOnce sync.Once
	sweepDone chan struct{}
}

// Config holds registry timing parameters.
type Config struct {
	// PingPeriod is the interval at which browsers are asked to ping.
	PingPeriod time.Duration

	// CheckWait is the sweeper wake-up interval.
	CheckWait time.Duration
}

// DefaultConfig returns the timings used when none are configured.
func DefaultConfig() Config {
	return Config{
		PingPeriod: 5 * time.Second,
		CheckWait:  10 * time.Second,
	}
}

// NewRegistry creates a Registry. onEvict may be nil.
func NewRegistry(cfg Config, onEvict func(id string), logger *slog.Logger) *Registry {
	def := DefaultConfig()
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = def.PingPeriod
	}
	if cfg.CheckWait <= 0 {
		cfg.CheckWait = def.CheckWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions:   make(map[string]time.Time),
		pingPeriod: cfg.PingPeriod,
		checkWait:  cfg.CheckWait,
		logger:     logger.With("component", "session_registry"),
		onEvict:    onEvict,
		done:       make(chan struct{}),
		sweepDone:  make(chan struct{}),
	}
}

// NewID returns a fresh 8-hex-digit session id.
func NewID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Register adds a session with the current timestamp.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	r.sessions[id] = time.Now()
	n := len(r.sessions)
	r.mu.Unlock()
	r.logger.Info("session opened", "session_id", id, "active", n)
}

// Ping refreshes a session's liveness timestamp. Pings for unknown
// sessions are ignored; a browser is re-registered only on a fresh
// document fetch.
func (r *Registry) Ping(id string) {
	r.mu.Lock()
	if _, ok := r.sessions[id]; ok {
		r.sessions[id] = time.Now()
	}
	r.mu.Unlock()
}

// Deregister removes a session.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if ok {
		r.logger.Info("session closed", "session_id", id, "active", n)
		if r.onEvict != nil {
			r.onEvict(id)
		}
	}
}

// Active reports whether the session is registered.
func (r *Registry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Start launches the liveness sweeper. It runs until the context is
// cancelled or Close is called.
func (r *Registry) Start(ctx context.Context) {
	go r.sweepLoop(ctx)
}

// Close stops the sweeper and waits for it to exit.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
	<-r.sweepDone
}

func (r *Registry) sweepLoop(ctx context.Context) {
	defer close(r.sweepDone)

	ticker := time.NewTicker(r.checkWait)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(time.Now())
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// sweep evicts every session idle longer than the ping period plus the
// grace window.
func (r *Registry) sweep(now time.Time) {
	deadline := r.pingPeriod + graceFactor*r.checkWait

	r.mu.Lock()
	var evicted []string
	for id, lastPing := range r.sessions {
		if now.Sub(lastPing) > deadline {
			evicted = append(evicted, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range evicted {
		r.logger.Info("session evicted", "session_id", id)
		if r.onEvict != nil {
			r.onEvict(id)
		}
	}
}
