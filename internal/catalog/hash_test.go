package catalog

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

func testTea() domain.Tea {
	tea := NewTea("https://example.com/tproduct/1")
	tea.Name = domain.StringPtr("Test Tea")
	tea.Price = domain.StringPtr("100")
	tea.Composition = []string{"black tea", "bergamot"}
	tea.PriceVariants = []domain.PriceVariant{{Packaging: "50 г", Price: "100", Quantity: "2"}}
	tea.InStock = true
	return tea
}

func TestContentHash_Stable(t *testing.T) {
	tea := testTea()

	h1, err := ContentHash(tea)
	require.NoError(t, err)
	h2, err := ContentHash(tea)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	_, err = hex.DecodeString(h1)
	assert.NoError(t, err)
}

func TestContentHash_Sensitive(t *testing.T) {
	base, err := ContentHash(testTea())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*domain.Tea)
	}{
		{"price", func(t *domain.Tea) { t.Price = domain.StringPtr("200") }},
		{"name cleared", func(t *domain.Tea) { t.Name = nil }},
		{"list order", func(t *domain.Tea) { t.Composition = []string{"bergamot", "black tea"} }},
		{"variant quantity", func(t *domain.Tea) { t.PriceVariants[0].Quantity = "0" }},
		{"in stock", func(t *domain.Tea) { t.InStock = false }},
		{"sample url", func(t *domain.Tea) { t.SampleURL = domain.StringPtr("https://example.com/probnik") }},
		{"series", func(t *domain.Tea) { t.Series = domain.StringPtr("Green") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tea := testTea()
			tt.mutate(&tea)
			h, err := ContentHash(tea)
			require.NoError(t, err)
			assert.NotEqual(t, base, h)
		})
	}
}

func TestContentHash_NilListsEqualEmpty(t *testing.T) {
	a := testTea()
	b := testTea()
	a.Images = nil
	b.Images = []string{}

	ha, err := ContentHash(a)
	require.NoError(t, err)
	hb, err := ContentHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}
