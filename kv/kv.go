package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("cardvault/kv: key not found")

// Store defines the interface for key-value persistence backends.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Write applies every operation in b, in order, as one atomic unit.
	Write(ctx context.Context, b *Batch) error

	// Close releases any resources held by the store.
	Close() error
}

// Op is a single operation in a Batch. A nil Value means delete.
type Op struct {
	Key   string
	Value []byte
}

// Delete reports whether the operation removes its key.
func (o Op) Delete() bool { return o.Value == nil }

// Batch collects puts and deletes to be applied together by Store.Write.
type Batch struct {
	ops []Op
}

// Put queues a write of value under key. A nil value is stored as empty.
func (b *Batch) Put(key string, value []byte) *Batch {
	if value == nil {
		value = []byte{}
	}
	b.ops = append(b.ops, Op{Key: key, Value: value})
	return b
}

// Delete queues removal of key.
func (b *Batch) Delete(key string) *Batch {
	b.ops = append(b.ops, Op{Key: key})
	return b
}

// Ops returns the queued operations in insertion order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}
