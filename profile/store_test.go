package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ryhazerus/cardvault/kv"
)

// flakyStore wraps a MemoryStore and can be told to fail reads or writes.
type flakyStore struct {
	*kv.MemoryStore
	failGet   bool
	failWrite bool
	writes    []*kv.Batch
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: kv.NewMemoryStore()}
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("storage unavailable")
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Write(ctx context.Context, b *kv.Batch) error {
	f.writes = append(f.writes, b)
	if f.failWrite {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Write(ctx, b)
}

func newTestStore(t *testing.T) (*Store, *flakyStore, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	backend := newFlakyStore()
	return New(backend, WithLogger(zap.New(core))), backend, logs
}

func rawKey(t *testing.T, backend kv.Store, key string) string {
	t.Helper()
	raw, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	return string(raw)
}

func cardByName(t *testing.T, cards []Card, name string) Card {
	t.Helper()
	for _, c := range cards {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("card %q not found", name)
	return Card{}
}

func entryByHandle(t *testing.T, entries []Entry, handle string) Entry {
	t.Helper()
	var (
		found Entry
		n     int
	)
	for _, e := range entries {
		if e.Handle == handle {
			found = e
			n++
		}
	}
	require.Equal(t, 1, n, "entries with handle %s", handle)
	return found
}

func TestCardsSeedsDefaults(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	cards := s.Cards(ctx)
	require.Len(t, cards, 6)

	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
		require.NotNil(t, c.Stats.Owned)
		assert.False(t, *c.Stats.Owned)
	}
	assert.Equal(t, []string{"MONAD", "BENJA", "JAMES", "EUNICE", "MIKE", "KEONEHON"}, names)

	var stored []Card
	require.NoError(t, json.Unmarshal([]byte(rawKey(t, backend, KeyCards)), &stored))
	assert.Equal(t, cards, stored)
}

func TestEntriesSeedsDefaults(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	entries := s.Entries(ctx)
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, e.SearchCount, e.Points)
		assert.False(t, e.IsOwned())
	}
	assert.NotEmpty(t, rawKey(t, backend, KeyEntries))
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	a := DefaultCards()
	*a[0].Stats.SearchCount = 1

	b := DefaultCards()
	assert.Equal(t, int64(1247), *b[0].Stats.SearchCount)
}

func TestCardsEmptySequenceNotPersisted(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, KeyCards, []byte(`[]`)))

	assert.Equal(t, DefaultCards(), s.Cards(ctx))
	assert.Equal(t, `[]`, rawKey(t, backend, KeyCards))
}

func TestCardsParseFailure(t *testing.T) {
	s, backend, logs := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, KeyCards, []byte(`{not json`)))

	assert.Equal(t, DefaultCards(), s.Cards(ctx))
	assert.Equal(t, `{not json`, rawKey(t, backend, KeyCards))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestCardsStorageUnavailable(t *testing.T) {
	s, backend, logs := newTestStore(t)
	backend.failGet = true

	assert.Equal(t, DefaultCards(), s.Cards(context.Background()))
	assert.Equal(t, DefaultEntries(), s.Entries(context.Background()))
	assert.Empty(t, backend.writes)
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestSaveCardSyncsIndex(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	s.SaveCard(ctx, Card{
		Name:   "MONAD",
		Title:  "Currently Mainnet",
		Handle: "@monad_xyz",
		Icon:   "/monad_v2.ico",
		Stats:  &Stats{SearchCount: Int64(5000)},
	})

	card := cardByName(t, s.Cards(ctx), "MONAD")
	assert.Equal(t, "Currently Mainnet", card.Title)
	assert.Equal(t, "/monad_v2.ico", card.Icon)
	assert.Equal(t, "#6B46C1", card.Color, "unspecified fields are retained")
	assert.Equal(t, "$12,500", card.Stats.TotalEarned, "unspecified stats are retained")
	assert.Equal(t, int64(5000), card.SearchCount())

	e := entryByHandle(t, s.Entries(ctx), "@monad_xyz")
	assert.Equal(t, "MONAD", e.Name)
	assert.Equal(t, "Currently Mainnet", e.Title)
	assert.Equal(t, "/monad_v2.ico", e.Icon)
	assert.Equal(t, int64(5000), e.SearchCount)
	assert.Equal(t, int64(5000), e.Points)

	require.Len(t, backend.writes, 1, "both collections go out in one batch")
	assert.Equal(t, 2, backend.writes[0].Len())
}

func TestSaveCardKeepsCountWhenAbsent(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.IncrementSearchCount(ctx, "@itsbenja")
	s.SaveCard(ctx, Card{Name: "BENJA", Title: "Currently Monad"})

	e := entryByHandle(t, s.Entries(ctx), "@itsbenja")
	assert.Equal(t, "Currently Monad", e.Title)
	assert.Equal(t, int64(893), e.SearchCount)
	assert.Equal(t, int64(893), e.Points)
	assert.Equal(t, int64(893), cardByName(t, s.Cards(ctx), "BENJA").SearchCount())
}

func TestSaveCardExplicitZeroCount(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.SaveCard(ctx, Card{Name: "MIKE", Stats: &Stats{SearchCount: Int64(0)}})

	assert.Equal(t, int64(0), cardByName(t, s.Cards(ctx), "MIKE").SearchCount())
	assert.Equal(t, int64(0), entryByHandle(t, s.Entries(ctx), "@mikepoly").SearchCount)
}

func TestSaveCardUnmatchedHandleLeavesIndex(t *testing.T) {
	s, _, logs := newTestStore(t)
	ctx := context.Background()
	before := s.Entries(ctx)

	s.SaveCard(ctx, Card{Name: "JAMES", Handle: "@james_new"})

	assert.Equal(t, "@james_new", cardByName(t, s.Cards(ctx), "JAMES").Handle)
	assert.Equal(t, before, s.Entries(ctx))
	assert.Equal(t, 1, logs.FilterMessage("save card: no search entry for handle").Len())
}

func TestSaveCardUnknownName(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	s.Cards(ctx)
	s.Entries(ctx)
	backend.writes = nil

	s.SaveCard(ctx, Card{Name: "NOBODY", Handle: "@monad_xyz", Stats: &Stats{SearchCount: Int64(1)}})

	assert.Empty(t, backend.writes)
	assert.Equal(t, int64(1247), entryByHandle(t, s.Entries(ctx), "@monad_xyz").SearchCount)
}

func TestSaveCardRejectsHandleOfAnotherCard(t *testing.T) {
	s, backend, logs := newTestStore(t)
	ctx := context.Background()
	cardsBefore := s.Cards(ctx)
	entriesBefore := s.Entries(ctx)
	backend.writes = nil

	s.SaveCard(ctx, Card{Name: "JAMES", Title: "Impostor", Handle: "@monad_xyz"})

	assert.Empty(t, backend.writes)
	assert.Equal(t, cardsBefore, s.Cards(ctx))
	assert.Equal(t, entriesBefore, s.Entries(ctx))
	assert.Equal(t, "@jameschain", cardByName(t, s.Cards(ctx), "JAMES").Handle)

	holders := 0
	for _, c := range s.Cards(ctx) {
		if c.Handle == "@monad_xyz" {
			holders++
		}
	}
	assert.Equal(t, 1, holders)
	assert.Equal(t, 1, logs.FilterMessage("save card: handle already in use").Len())
}

func TestSaveCardKeepsOwnHandle(t *testing.T) {
	s, _, logs := newTestStore(t)
	ctx := context.Background()

	s.SaveCard(ctx, Card{Name: "JAMES", Handle: "@jameschain", Title: "Still James"})

	assert.Equal(t, "Still James", entryByHandle(t, s.Entries(ctx), "@jameschain").Title)
	assert.Zero(t, logs.FilterMessage("save card: handle already in use").Len())
}

func TestSaveCardIgnoresNegativeCount(t *testing.T) {
	s, _, logs := newTestStore(t)
	ctx := context.Background()
	stats := &Stats{SearchCount: Int64(-5)}

	s.SaveCard(ctx, Card{Name: "MIKE", Title: "Polygon Mike", Stats: stats})

	card := cardByName(t, s.Cards(ctx), "MIKE")
	e := entryByHandle(t, s.Entries(ctx), "@mikepoly")
	assert.Equal(t, "Polygon Mike", card.Title)
	assert.Equal(t, "Polygon Mike", e.Title)
	assert.Equal(t, int64(987), card.SearchCount())
	assert.Equal(t, int64(987), e.SearchCount)
	assert.Equal(t, int64(987), e.Points)
	assert.Equal(t, int64(-5), *stats.SearchCount, "caller's stats are left untouched")
	assert.Equal(t, 1, logs.FilterMessage("save card: ignoring negative search count").Len())
}

func TestSaveCardWriteFailureIsSwallowed(t *testing.T) {
	s, backend, logs := newTestStore(t)
	ctx := context.Background()
	backend.failWrite = true

	assert.NotPanics(t, func() {
		s.SaveCard(ctx, Card{Name: "MONAD", Title: "x"})
	})
	assert.Equal(t, 1, logs.FilterMessage("save card failed").Len())
}

func TestIncrementSearchCount(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	beforeCards := s.Cards(ctx)
	beforeEntries := s.Entries(ctx)

	const n = 7
	for i := 0; i < n; i++ {
		s.IncrementSearchCount(ctx, "@euniceeth")
	}

	cards := s.Cards(ctx)
	entries := s.Entries(ctx)

	assert.Equal(t, cardByName(t, beforeCards, "EUNICE").SearchCount()+n, cardByName(t, cards, "EUNICE").SearchCount())

	e := entryByHandle(t, entries, "@euniceeth")
	before := entryByHandle(t, beforeEntries, "@euniceeth")
	assert.Equal(t, before.SearchCount+n, e.SearchCount)
	assert.Equal(t, before.Points+n, e.Points)

	for i := range cards {
		if cards[i].Handle == "@euniceeth" {
			continue
		}
		assert.Equal(t, beforeCards[i], cards[i])
		assert.Equal(t, beforeEntries[i], entries[i])
	}
}

func TestIncrementSearchCountZeroTimes(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, DefaultCards(), s.Cards(ctx))
	assert.Equal(t, DefaultEntries(), s.Entries(ctx))
}

func TestIncrementSearchCountUnknownHandle(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	s.Cards(ctx)
	s.Entries(ctx)
	backend.writes = nil

	s.IncrementSearchCount(ctx, "@nobody")
	s.IncrementSearchCount(ctx, "")

	assert.Empty(t, backend.writes)
}

func TestIncrementSearchCountMissingStats(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	cards := `[{"name":"ZED","title":"t","handle":"@zed"}]`
	entries := `[{"name":"ZED","title":"t","handle":"@zed","points":0,"searchCount":0}]`
	require.NoError(t, backend.Put(ctx, KeyCards, []byte(cards)))
	require.NoError(t, backend.Put(ctx, KeyEntries, []byte(entries)))

	s.IncrementSearchCount(ctx, "@zed")

	assert.Equal(t, int64(1), cardByName(t, s.Cards(ctx), "ZED").SearchCount())
	assert.Equal(t, int64(1), entryByHandle(t, s.Entries(ctx), "@zed").SearchCount)
}

func TestInitializeOwnership(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	cards := `[
		{"name":"A","title":"a","handle":"@a"},
		{"name":"B","title":"b","handle":"@b","stats":{"owned":true}}
	]`
	entries := `[
		{"name":"A","title":"a","handle":"@a","points":1,"searchCount":1},
		{"name":"B","title":"b","handle":"@b","points":1,"searchCount":1,"owned":true}
	]`
	require.NoError(t, backend.Put(ctx, KeyCards, []byte(cards)))
	require.NoError(t, backend.Put(ctx, KeyEntries, []byte(entries)))

	s.InitializeOwnership(ctx)
	s.InitializeOwnership(ctx)

	got := s.Cards(ctx)
	require.NotNil(t, cardByName(t, got, "A").Stats.Owned)
	assert.False(t, cardByName(t, got, "A").Owned())
	assert.True(t, cardByName(t, got, "B").Owned())

	gotEntries := s.Entries(ctx)
	require.NotNil(t, entryByHandle(t, gotEntries, "@a").Owned)
	assert.False(t, entryByHandle(t, gotEntries, "@a").IsOwned())
	assert.True(t, entryByHandle(t, gotEntries, "@b").IsOwned())
}

func TestInitializeOwnershipNoopWhenSet(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()
	s.Cards(ctx)
	s.Entries(ctx)
	backend.writes = nil

	s.InitializeOwnership(ctx)

	assert.Empty(t, backend.writes)
}

func TestSetOwned(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.SetOwned(ctx, "@keonearb", true)

	assert.True(t, cardByName(t, s.Cards(ctx), "KEONEHON").Owned())
	assert.True(t, entryByHandle(t, s.Entries(ctx), "@keonearb").IsOwned())

	// Ownership survives other edits.
	s.InitializeOwnership(ctx)
	s.SaveCard(ctx, Card{Name: "KEONEHON", Title: "Currently Base"})
	assert.True(t, cardByName(t, s.Cards(ctx), "KEONEHON").Owned())
	assert.True(t, entryByHandle(t, s.Entries(ctx), "@keonearb").IsOwned())

	s.SetOwned(ctx, "@keonearb", false)
	assert.False(t, cardByName(t, s.Cards(ctx), "KEONEHON").Owned())
}

func TestResetToDefaults(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	s.SaveCard(ctx, Card{Name: "MONAD", Title: "edited", Stats: &Stats{SearchCount: Int64(1)}})
	s.IncrementSearchCount(ctx, "@jameschain")
	require.NoError(t, backend.Put(ctx, KeyLegacyCounts, []byte(`{"@jameschain":3}`)))

	s.ResetToDefaults(ctx)

	assert.Equal(t, DefaultCards(), s.Cards(ctx))
	assert.Equal(t, DefaultEntries(), s.Entries(ctx))
	_, err := backend.Get(ctx, KeyLegacyCounts)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestClearAll(t *testing.T) {
	s, backend, _ := newTestStore(t)
	ctx := context.Background()

	s.SaveCard(ctx, Card{Name: "MONAD", Title: "edited"})
	require.NoError(t, backend.Put(ctx, KeyLegacyCounts, []byte(`{}`)))

	s.ClearAll(ctx)

	for _, k := range []string{KeyCards, KeyEntries, KeyLegacyCounts} {
		_, err := backend.Get(ctx, k)
		assert.ErrorIs(t, err, kv.ErrNotFound, k)
	}

	assert.Equal(t, DefaultCards(), s.Cards(ctx))
	assert.Equal(t, DefaultCards(), s.Cards(ctx))
}

func TestStoreOnSQLite(t *testing.T) {
	backend, err := kv.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	s := New(backend)
	ctx := context.Background()

	s.IncrementSearchCount(ctx, "@mikepoly")
	s.SaveCard(ctx, Card{Name: "MIKE", Title: "Currently zkEVM"})

	e := entryByHandle(t, s.Entries(ctx), "@mikepoly")
	assert.Equal(t, "Currently zkEVM", e.Title)
	assert.Equal(t, int64(988), e.SearchCount)
	assert.Equal(t, int64(988), cardByName(t, s.Cards(ctx), "MIKE").SearchCount())
}
