package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStorageKey(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com", "4fd35a71-71ef-5a55-a9d9-aa75c889a6d0"},
		{"https://beliyles.com/tproduct/123-oblepihovii-chai", "1aa89be9-bd3c-5a6d-85b3-2b5777085060"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStorageKey(tt.url))
			assert.Equal(t, tt.expected, DeriveStorageKey(tt.url), "derivation must be pure")
		})
	}
}

func TestDeriveID(t *testing.T) {
	url := "https://example.com"

	id := DeriveID(url)
	assert.Equal(t, "4fd35a71", id)
	assert.Len(t, id, ShortIDLength)
	assert.Equal(t, DeriveStorageKey(url)[:ShortIDLength], id)
	assert.NotEqual(t, id, DeriveID("https://example.com/other"))
}

func TestNewTea(t *testing.T) {
	tea := NewTea("https://example.com")

	assert.Equal(t, "https://example.com", tea.URL)
	assert.Equal(t, "4fd35a71", tea.ID)
	assert.NotNil(t, tea.Images)
	assert.Nil(t, tea.Name)
	assert.Nil(t, tea.SampleURL)
}
