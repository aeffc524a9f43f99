// Package qdrant provides a Qdrant-backed implementation of the catalog store.
//
// The adapter talks to the Qdrant REST API over net/http. Each record is one
// point keyed by the record's storage key, with a single named vector
// ("embedding", cosine distance) and a flat payload holding the filterable
// fields next to the full record JSON.
//
// Records stored without an embedding carry has_embedding=false and are
// excluded from every search.
package qdrant
