package kv

import (
	"context"
	"errors"
	"sync"
)

// Compile-time interface check.
var _ Store = (*TieredStore)(nil)

// TieredStore wraps an in-memory store (fast path) with a persistent backend
// (durable path). Writes go to both stores (write-through); reads check memory
// first and fall back to the persistent store on a miss.
//
// mu orders read backfills against writes: a miss holds it shared while it
// reads the persistent store and fills memory, Write and Delete hold it
// exclusively, so a backfill can never land after a newer write.
type TieredStore struct {
	mu         sync.RWMutex
	memory     *MemoryStore
	persistent Store
}

// NewTieredStore creates a TieredStore backed by the given persistent store.
// An internal MemoryStore is created automatically.
func NewTieredStore(persistent Store) *TieredStore {
	return &TieredStore{
		memory:     NewMemoryStore(),
		persistent: persistent,
	}
}

// Get reads from memory first. On a miss it falls back to the persistent
// store and backfills memory.
func (t *TieredStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := t.memory.Get(ctx, key)
	if err == nil {
		return v, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	v, err = t.persistent.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	t.memory.putIfAbsent(key, v)
	return v, nil
}

// Put writes through to the persistent backend, then memory.
func (t *TieredStore) Put(ctx context.Context, key string, value []byte) error {
	return t.Write(ctx, new(Batch).Put(key, value))
}

// Delete removes the keys from both stores.
func (t *TieredStore) Delete(ctx context.Context, keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.persistent.Delete(ctx, keys...); err != nil {
		return err
	}
	return t.memory.Delete(ctx, keys...)
}

// Write applies the batch to the persistent store first; memory is only
// updated once the persistent write has committed. If the persistent write
// fails, the affected keys are evicted from memory so the next read goes to
// the source of truth.
func (t *TieredStore) Write(ctx context.Context, b *Batch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.persistent.Write(ctx, b); err != nil {
		keys := make([]string, 0, b.Len())
		for _, op := range b.Ops() {
			keys = append(keys, op.Key)
		}
		t.memory.Delete(ctx, keys...)
		return err
	}
	return t.memory.Write(ctx, b)
}

// Close closes the persistent backend. The in-memory store needs no cleanup.
func (t *TieredStore) Close() error {
	return errors.Join(t.memory.Close(), t.persistent.Close())
}
