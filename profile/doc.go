// Package profile keeps the two persisted views of profile data in step:
// the editable display cards and the search index used for search and
// leaderboard ranking.
//
// # Key Concepts
//
//   - [Card] is the editable record shown on a profile card, keyed by name.
//   - [Entry] is the search/leaderboard projection, keyed by handle.
//   - [Store] owns both collections on top of a [kv.Store]. It seeds the
//     default profiles on first read and keeps searchCount identical in both
//     collections after every mutation.
//
// Read failures never reach the caller: the store logs a warning and serves
// the default collections. Write failures are logged and swallowed.
//
// # Quick Start
//
//	s := profile.New(kv.NewMemoryStore())
//	s.IncrementSearchCount(ctx, "@monad_xyz")
//	for _, e := range s.Leaderboard(ctx, 3) {
//		fmt.Println(e.Name, e.Points)
//	}
//
// Both collections are stored as JSON under fixed keys (see [KeyCards] and
// [KeyEntries]). Mutations that touch both are written in a single
// [kv.Batch]; writers in separate processes remain last-write-wins.
package profile
