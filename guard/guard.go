package guard

import (
	"context"
	"sync"
	"time"

	"github.com/filecoin-project/go-clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Defaults used by Allow unless overridden with WithDefaults.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = time.Minute
	DefaultMaxEntries  = 10_000
)

type record struct {
	count   int
	resetAt time.Time
}

// expired reports whether the record's window has ended at now.
func (r *record) expired(now time.Time) bool {
	return !now.Before(r.resetAt)
}

// Guard is a per-identifier fixed-window rate limiter.
// It is safe for concurrent use.
type Guard struct {
	mu      sync.Mutex
	records *lru.Cache[string, *record]

	clock          clock.Clock
	maxEntries     int
	maxRequests    int
	window         time.Duration
	onLimitReached func(string, int)
	log            *zap.Logger
}

// New creates a Guard with the given options.
func New(opts ...Option) *Guard {
	g := &Guard{
		maxEntries:  DefaultMaxEntries,
		maxRequests: DefaultMaxRequests,
		window:      DefaultWindow,
	}
	for _, o := range opts {
		o(g)
	}
	if g.clock == nil {
		g.clock = clock.New()
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}

	records, err := lru.New[string, *record](g.maxEntries)
	if err != nil {
		// Only possible for a non-positive size, which WithMaxEntries rejects.
		panic(err)
	}
	g.records = records
	return g
}

// Allow checks identifier against the default limit and window.
func (g *Guard) Allow(identifier string) bool {
	return g.CheckRateLimit(identifier, g.maxRequests, g.window)
}

// CheckRateLimit records a call for identifier and reports whether it is
// within the limit. The first call, and the first call after the window has
// ended, opens a new window of the given length with a count of one. Later
// calls in the window are allowed until maxRequests calls have been counted;
// denied calls are not counted.
func (g *Guard) CheckRateLimit(identifier string, maxRequests int, window time.Duration) bool {
	now := g.clock.Now()

	g.mu.Lock()
	r, ok := g.records.Get(identifier)
	if !ok || r.expired(now) {
		g.records.Add(identifier, &record{count: 1, resetAt: now.Add(window)})
		g.mu.Unlock()
		return true
	}

	if r.count >= maxRequests {
		count := r.count
		g.mu.Unlock()
		if g.onLimitReached != nil {
			g.onLimitReached(identifier, count)
		}
		return false
	}

	r.count++
	g.mu.Unlock()
	return true
}

// CleanupExpired removes every record whose window has ended and returns how
// many were removed.
func (g *Guard) CleanupExpired() int {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, id := range g.records.Keys() {
		r, ok := g.records.Peek(id)
		if ok && r.expired(now) {
			g.records.Remove(id)
			removed++
		}
	}
	return removed
}

// Run calls CleanupExpired every interval until ctx is cancelled.
func (g *Guard) Run(ctx context.Context, interval time.Duration) {
	t := g.clock.Ticker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := g.CleanupExpired(); n > 0 {
				g.log.Debug("expired rate limit records removed", zap.Int("removed", n))
			}
		}
	}
}

// Len returns the number of identifiers currently tracked.
func (g *Guard) Len() int {
	return g.records.Len()
}
