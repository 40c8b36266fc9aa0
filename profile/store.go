package profile

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/ryhazerus/cardvault/kv"
)

// Persisted keys.
const (
	KeyCards   = "profileCards"
	KeyEntries = "searchProfiles"
	// KeyLegacyCounts is no longer read; ClearAll and ResetToDefaults remove it.
	KeyLegacyCounts = "profileSearchCounts"
)

// Store is the profile persistence layer. It is safe to use from multiple
// goroutines to the extent the underlying kv.Store is, but read-modify-write
// operations are not serialised against each other.
type Store struct {
	kv  kv.Store
	log *zap.Logger
}

// New creates a Store on top of the given backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{kv: backend}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Cards returns the display cards. On first access the default cards are
// persisted and returned.
func (s *Store) Cards(ctx context.Context) []Card {
	cards, absent := load(ctx, s, KeyCards, DefaultCards)
	if absent {
		s.write(ctx, "seed cards", s.putJSON(new(kv.Batch), KeyCards, cards))
	}
	return cards
}

// Entries returns the search index. On first access the default entries are
// persisted and returned.
func (s *Store) Entries(ctx context.Context) []Entry {
	entries, absent := load(ctx, s, KeyEntries, DefaultEntries)
	if absent {
		s.write(ctx, "seed entries", s.putJSON(new(kv.Batch), KeyEntries, entries))
	}
	return entries
}

// SaveCard merges u over the card with the same name and persists the
// result. The search entry sharing the card's handle receives the card's
// name, title, icon and colours; its searchCount and points are set to
// u.Stats.SearchCount when present and otherwise to its current
// searchCount. An update whose name matches no card, or whose handle
// belongs to another card, changes nothing. A negative searchCount is
// ignored.
func (s *Store) SaveCard(ctx context.Context, u Card) {
	if u.Stats != nil && u.Stats.SearchCount != nil && *u.Stats.SearchCount < 0 {
		s.log.Warn("save card: ignoring negative search count",
			zap.String("name", u.Name), zap.Int64("searchCount", *u.Stats.SearchCount))
		stats := *u.Stats
		stats.SearchCount = nil
		u.Stats = &stats
	}

	cards, _ := load(ctx, s, KeyCards, DefaultCards)

	idx := -1
	for i := range cards {
		if cards[i].Name == u.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.Warn("save card: no card with that name", zap.String("name", u.Name))
		return
	}
	if u.Handle != "" && u.Handle != cards[idx].Handle {
		for i := range cards {
			if i != idx && cards[i].Handle == u.Handle {
				s.log.Warn("save card: handle already in use",
					zap.String("name", u.Name), zap.String("handle", u.Handle),
					zap.String("owner", cards[i].Name))
				return
			}
		}
	}
	cards[idx] = cards[idx].merge(u)
	merged := cards[idx]

	b := s.putJSON(new(kv.Batch), KeyCards, cards)

	entries, _ := load(ctx, s, KeyEntries, DefaultEntries)
	synced := false
	for i := range entries {
		e := &entries[i]
		if merged.Handle == "" || e.Handle != merged.Handle {
			continue
		}
		e.Name = merged.Name
		e.Title = merged.Title
		e.Icon = merged.Icon
		e.Color = merged.Color
		e.TextColor = merged.TextColor

		count := e.SearchCount
		if u.Stats != nil && u.Stats.SearchCount != nil {
			count = *u.Stats.SearchCount
		}
		e.SearchCount = count
		e.Points = count

		if u.Stats != nil && u.Stats.Owned != nil {
			e.Owned = Bool(*u.Stats.Owned)
		}
		synced = true
	}
	if synced {
		s.putJSON(b, KeyEntries, entries)
	} else {
		s.log.Warn("save card: no search entry for handle",
			zap.String("name", merged.Name), zap.String("handle", merged.Handle))
	}

	if s.write(ctx, "save card", b) {
		s.log.Debug("profile saved", zap.String("name", merged.Name))
	}
}

// IncrementSearchCount adds one to the searchCount of the card and entry
// with the given handle, and one to the entry's points. Unknown handles are
// ignored.
func (s *Store) IncrementSearchCount(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	cards, _ := load(ctx, s, KeyCards, DefaultCards)
	entries, _ := load(ctx, s, KeyEntries, DefaultEntries)

	touched := false
	for i := range entries {
		if entries[i].Handle == handle {
			entries[i].SearchCount++
			entries[i].Points++
			touched = true
		}
	}
	for i := range cards {
		if cards[i].Handle == handle {
			if cards[i].Stats == nil {
				cards[i].Stats = &Stats{}
			}
			cards[i].Stats.SearchCount = Int64(cards[i].SearchCount() + 1)
			touched = true
		}
	}
	if !touched {
		return
	}

	b := new(kv.Batch)
	s.putJSON(b, KeyEntries, entries)
	s.putJSON(b, KeyCards, cards)
	if s.write(ctx, "increment search count", b) {
		s.log.Debug("search count updated", zap.String("handle", handle))
	}
}

// InitializeOwnership sets every absent owned flag to false in both
// collections. Flags that are already set are left alone.
func (s *Store) InitializeOwnership(ctx context.Context) {
	cards, cardsAbsent := load(ctx, s, KeyCards, DefaultCards)
	entries, entriesAbsent := load(ctx, s, KeyEntries, DefaultEntries)

	changed := cardsAbsent || entriesAbsent
	for i := range cards {
		if cards[i].Stats == nil {
			cards[i].Stats = &Stats{}
		}
		if cards[i].Stats.Owned == nil {
			cards[i].Stats.Owned = Bool(false)
			changed = true
		}
	}
	for i := range entries {
		if entries[i].Owned == nil {
			entries[i].Owned = Bool(false)
			changed = true
		}
	}
	if !changed {
		return
	}

	b := new(kv.Batch)
	s.putJSON(b, KeyCards, cards)
	s.putJSON(b, KeyEntries, entries)
	if s.write(ctx, "initialize ownership", b) {
		s.log.Debug("default ownership initialized")
	}
}

// SetOwned sets the owned flag for handle in both collections. How a
// profile becomes owned is up to the caller.
func (s *Store) SetOwned(ctx context.Context, handle string, owned bool) {
	if handle == "" {
		return
	}
	cards, _ := load(ctx, s, KeyCards, DefaultCards)
	entries, _ := load(ctx, s, KeyEntries, DefaultEntries)

	touched := false
	for i := range cards {
		if cards[i].Handle == handle {
			if cards[i].Stats == nil {
				cards[i].Stats = &Stats{}
			}
			cards[i].Stats.Owned = Bool(owned)
			touched = true
		}
	}
	for i := range entries {
		if entries[i].Handle == handle {
			entries[i].Owned = Bool(owned)
			touched = true
		}
	}
	if !touched {
		s.log.Warn("set owned: unknown handle", zap.String("handle", handle))
		return
	}

	b := new(kv.Batch)
	s.putJSON(b, KeyCards, cards)
	s.putJSON(b, KeyEntries, entries)
	s.write(ctx, "set owned", b)
}

// ResetToDefaults replaces both collections with the default set and drops
// the legacy search-count key.
func (s *Store) ResetToDefaults(ctx context.Context) {
	b := new(kv.Batch)
	s.putJSON(b, KeyCards, DefaultCards())
	s.putJSON(b, KeyEntries, DefaultEntries())
	b.Delete(KeyLegacyCounts)
	if s.write(ctx, "reset to defaults", b) {
		s.log.Info("profiles reset to defaults")
	}
}

// ClearAll removes both collections and the legacy key. The next read
// seeds the defaults again.
func (s *Store) ClearAll(ctx context.Context) {
	b := new(kv.Batch).
		Delete(KeyCards).
		Delete(KeyEntries).
		Delete(KeyLegacyCounts)
	if s.write(ctx, "clear all", b) {
		s.log.Info("all profile data cleared")
	}
}

// load reads and decodes the collection under key. It reports absent when
// the key has never been written. Any other failure, and an empty stored
// sequence, yields the defaults.
func load[T any](ctx context.Context, s *Store, key string, defaults func() []T) (items []T, absent bool) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return defaults(), true
	}
	if err != nil {
		s.log.Warn("loading profiles failed, using defaults", zap.String("key", key), zap.Error(err))
		return defaults(), false
	}

	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("decoding profiles failed, using defaults", zap.String("key", key), zap.Error(err))
		return defaults(), false
	}
	if len(items) == 0 {
		return defaults(), false
	}
	return items, false
}

// putJSON encodes v and queues it on b under key.
func (s *Store) putJSON(b *kv.Batch, key string, v any) *kv.Batch {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encoding profiles failed", zap.String("key", key), zap.Error(err))
		return b
	}
	return b.Put(key, raw)
}

// write applies b and logs any failure. It reports whether the write
// succeeded.
func (s *Store) write(ctx context.Context, op string, b *kv.Batch) bool {
	if err := s.kv.Write(ctx, b); err != nil {
		s.log.Error(op+" failed", zap.Error(err))
		return false
	}
	return true
}
