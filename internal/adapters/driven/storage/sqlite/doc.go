// Package sqlite provides a SQLite-based implementation of the catalog store
// and the page cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two port interfaces
// through a single database connection:
//
//   - TeaStore: Catalog records with embeddings and similarity search
//   - PageCache: Raw product pages for offline syncs
//
// # Vector Search
//
// Embeddings are stored as little-endian float32 BLOBs. Similarity is computed
// by the vec_cosine_distance(a, b) scalar function registered with the driver,
// with filters applied through indexed columns.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.chai/chai.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
