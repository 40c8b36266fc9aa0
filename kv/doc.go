// Package kv defines the [Store] interface for the key-value backends that
// hold persisted profile collections, and provides four implementations:
//
//   - [MemoryStore]: fast, in-memory values that are lost on restart.
//   - [SQLiteStore]: persistent values backed by a SQLite database.
//   - [RedisStore]: values kept in Redis, shared between processes.
//   - [TieredStore]: a memory cache in front of any persistent Store.
//
// Custom backends can be created by implementing the [Store] interface.
package kv
