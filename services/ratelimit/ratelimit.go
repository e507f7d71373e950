package ratelimit

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Config is the admission policy for one action.
type Config struct {
	Action      string
	MaxRequests int
	Window      time.Duration
}

// Per-action policies. Keyed by the wire event they guard.
var (
	JoinRoom     = Config{Action: "join_room", MaxRequests: 5, Window: time.Minute}
	SubmitAnswer = Config{Action: "submit_answer", MaxRequests: 10, Window: 10 * time.Second}
	CreateRoom   = Config{Action: "create_room", MaxRequests: 3, Window: time.Minute}
	SendMessage  = Config{Action: "send_message", MaxRequests: 1, Window: 2 * time.Second}
)

// Clients with no timestamp younger than this get evicted by the sweep.
const retentionWindow = 10 * time.Minute

// Result reports an admission decision plus the feedback clients get.
type Result struct {
	Allowed   bool
	Remaining int
	// Milliseconds until the oldest timestamp leaves the window. Zero when
	// the window is empty.
	ResetAfterMs int64
}

// Limiter is a sliding-window counter keyed by (client identity, action).
type Limiter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	windows map[string][]time.Time
	stop    chan struct{}
}

func NewLimiter(clock clockwork.Clock) *Limiter {
	return &Limiter{
		clock:   clock,
		windows: make(map[string][]time.Time),
		stop:    make(chan struct{}),
	}
}

func key(clientId string, cfg Config) string {
	return fmt.Sprintf("%s:%s", clientId, cfg.Action)
}

// IsAllowed prunes expired timestamps, then either records the request and
// admits it or rejects it with retry feedback.
func (l *Limiter) IsAllowed(clientId string, cfg Config) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	k := key(clientId, cfg)
	window := l.windows[k]

	cutoff := now.Add(-cfg.Window)
	pruned := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= cfg.MaxRequests {
		l.windows[k] = pruned
		return Result{
			Allowed:      false,
			Remaining:    0,
			ResetAfterMs: resetAfterMs(now, pruned[0], cfg.Window),
		}
	}

	pruned = append(pruned, now)
	l.windows[k] = pruned
	return Result{
		Allowed:      true,
		Remaining:    cfg.MaxRequests - len(pruned),
		ResetAfterMs: resetAfterMs(now, pruned[0], cfg.Window),
	}
}

func resetAfterMs(now, oldest time.Time, window time.Duration) int64 {
	ms := oldest.Add(window).Sub(now).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// StartSweep evicts idle clients periodically so the window map cannot grow
// without bound. The sweep only touches memory, never admission decisions:
// anything it removes was already outside every action window.
func (l *Limiter) StartSweep(period time.Duration) {
	go func() {
		ticker := l.clock.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *Limiter) StopSweep() {
	close(l.stop)
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().Add(-retentionWindow)
	evicted := 0
	for k, window := range l.windows {
		stale := true
		for _, ts := range window {
			if ts.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.windows, k)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[RATELIMIT-SWEEP] Evicted %d idle client windows", evicted)
	}
}

// TrackedClients returns how many (client, action) windows are held. Used by
// the sweep tests and the health endpoint.
func (l *Limiter) TrackedClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
