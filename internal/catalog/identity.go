package catalog

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// ShortIDLength is the number of storage key characters kept in a short ID.
const ShortIDLength = 8

// DeriveStorageKey returns the version 5 UUID of url in the URL namespace.
// It is the primary key of a record in every store backend.
func DeriveStorageKey(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// DeriveID returns the short ID of url: the first ShortIDLength characters
// of its storage key. Short IDs are compact but not globally unique.
func DeriveID(url string) string {
	return DeriveStorageKey(url)[:ShortIDLength]
}

// NewTea returns an empty record for url with its derived ID.
func NewTea(url string) domain.Tea {
	return domain.Tea{
		ID:              DeriveID(url),
		URL:             url,
		PriceVariants:   []domain.PriceVariant{},
		Composition:     []string{},
		FullComposition: []string{},
		VolumeOptions:   []string{},
		Images:          []string{},
		SearchTags:      []string{},
	}
}
