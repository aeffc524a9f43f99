// Package domain defines the core business entities for chai.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Tea: A catalog product record with its price variants
//   - StoredTea: A persisted record with its content hash
//   - SearchFilters / SearchResult: Similarity search inputs and hits
//   - SyncStats: The audit trail of a catalog sync run
//   - CacheEntry: A raw product page kept for offline syncs
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
