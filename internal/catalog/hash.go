package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// ContentHash returns the lowercase hex SHA-256 of the record's canonical JSON.
// Fields are serialised in struct order and lists in element order, so any
// change to the record, including reordering a list, changes the hash.
// Nil and empty lists hash the same.
func ContentHash(tea domain.Tea) (string, error) {
	data, err := json.Marshal(canonical(tea))
	if err != nil {
		return "", fmt.Errorf("marshal tea %s: %w", tea.URL, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonical replaces nil lists with empty ones.
func canonical(tea domain.Tea) domain.Tea {
	if tea.PriceVariants == nil {
		tea.PriceVariants = []domain.PriceVariant{}
	}
	tea.Composition = nonNil(tea.Composition)
	tea.FullComposition = nonNil(tea.FullComposition)
	tea.VolumeOptions = nonNil(tea.VolumeOptions)
	tea.Images = nonNil(tea.Images)
	tea.SearchTags = nonNil(tea.SearchTags)
	return tea
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
