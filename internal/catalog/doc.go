// Package catalog holds the pure functions applied to catalog records:
// identity derivation, content hashing, embedding text rendering,
// classification and sample linking.
//
// Nothing in this package performs I/O. It imports only domain and
// github.com/google/uuid.
package catalog
