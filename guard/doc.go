// Package guard protects externally triggered operations. It provides a
// per-identifier fixed-window rate limiter and text helpers for user input.
//
// A single [Guard] is meant to be constructed at process start and passed to
// whatever needs it:
//
//	g := guard.New(guard.WithMaxEntries(50_000))
//	go g.Run(ctx, time.Minute) // sweep expired windows
//
//	if !g.Allow(walletAddress) {
//		return // over the limit; try again later
//	}
//
// Limiter state lives only in memory and is lost on restart.
//
// [SanitizeInput] strips a fixed blocklist of markup fragments. It is not an
// HTML sanitizer and must not be relied on to make text safe for markup; use
// [EscapeHTML] for that.
package guard
