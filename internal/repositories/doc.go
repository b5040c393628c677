// Package repositories implements the persistent key-value store shared by list
// and form views, and the filter/sort state kept on top of it.
//
// Key Implementations:
//   - [SQLiteStore] : a local SQLite file (default), migrated on open
//   - [RedisStore] : a Redis database, for consoles on different machines
//   - [MemoryStore] : process-local, for tests and throwaway sessions
//   - [FilterStateStore] : per-entity filters, sort field and sort order
//
// Writes are last-writer-wins and there is no cross-key atomicity.
package repositories
