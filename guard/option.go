package guard

import (
	"time"

	"github.com/filecoin-project/go-clock"
	"go.uber.org/zap"
)

// Option configures the Guard.
type Option func(*Guard)

// WithClock sets the time source. Tests pass a clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(g *Guard) {
		g.clock = c
	}
}

// WithMaxEntries bounds the number of identifiers tracked at once. When the
// bound is reached the least recently used identifier is dropped and starts a
// fresh window on its next call.
func WithMaxEntries(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxEntries = n
		}
	}
}

// WithDefaults sets the limit and window used by Allow.
func WithDefaults(maxRequests int, window time.Duration) Option {
	return func(g *Guard) {
		g.maxRequests = maxRequests
		g.window = window
	}
}

// WithOnLimitReached sets a callback fired each time a call is denied.
func WithOnLimitReached(fn func(identifier string, count int)) Option {
	return func(g *Guard) {
		g.onLimitReached = fn
	}
}

// WithLogger sets the logger for sweep activity.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}
