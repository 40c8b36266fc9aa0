package profile

import (
	"context"
	"sort"
)

// SearchCounts returns the search index count for every entry with a handle.
func (s *Store) SearchCounts(ctx context.Context) map[string]int64 {
	return countsOf(s.Entries(ctx))
}

func countsOf(entries []Entry) map[string]int64 {
	counts := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.Handle != "" {
			counts[e.Handle] = e.SearchCount
		}
	}
	return counts
}

// Leaderboard returns the top n entries by points, then searchCount. Ties
// keep index order. n <= 0 returns every entry.
func (s *Store) Leaderboard(ctx context.Context, n int) []Entry {
	entries := s.Entries(ctx)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].SearchCount > entries[j].SearchCount
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Search returns the entries whose name or handle match query, in index
// order. A query containing "*" is treated as a wildcard pattern.
func (s *Store) Search(ctx context.Context, query string) []Entry {
	var out []Entry
	for _, e := range s.Entries(ctx) {
		if matchEntry(query, e) {
			out = append(out, e)
		}
	}
	return out
}

// Status is a point-in-time view of everything the store holds.
type Status struct {
	Cards        []Card           `json:"cards"`
	Entries      []Entry          `json:"entries"`
	SearchCounts map[string]int64 `json:"searchCounts"`
}

// Status returns both collections and the per-handle search counts.
func (s *Store) Status(ctx context.Context) Status {
	entries := s.Entries(ctx)
	return Status{
		Cards:        s.Cards(ctx),
		Entries:      entries,
		SearchCounts: countsOf(entries),
	}
}
