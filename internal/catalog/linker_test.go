package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

func named(url, name string) *domain.Tea {
	tea := NewTea(url)
	tea.Name = domain.StringPtr(name)
	return &tea
}

func TestLinker_ExactMatchAfterNormalisation(t *testing.T) {
	main := named("https://x/tproduct/1-oblepiha", "Облепиховый чай")
	sample := named("https://x/tproduct/2-probnik-oblepiha", "Пробник Облепиховый чай")

	result := NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{main})

	assert.Equal(t, LinkResult{Linked: 1}, result)
	require.NotNil(t, main.SampleURL)
	assert.Equal(t, sample.URL, *main.SampleURL)
	assert.Nil(t, sample.SampleURL, "samples never carry a sample url")
}

func TestLinker_MainNameKeepsPrefix(t *testing.T) {
	main := named("https://x/tproduct/1-probnik-set", "Пробник Улуны")
	plain := named("https://x/tproduct/2-ulun", "  Улуны ")
	sample := named("https://x/tproduct/3-probnik-ulun", "Пробник Улуны")

	result := NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{main, plain})

	assert.Equal(t, LinkResult{Linked: 1}, result)
	assert.Nil(t, main.SampleURL, "main names are not stripped of sample prefixes")
	require.NotNil(t, plain.SampleURL)
	assert.Equal(t, sample.URL, *plain.SampleURL)
}

func TestLinker_BelowThresholdNotLinked(t *testing.T) {
	main := named("https://x/1", "Облепиховый чай с мятой и лимоном")
	sample := named("https://x/2", "Пробник Облепиховый чай")

	result := NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{main})

	assert.Equal(t, LinkResult{NotLinked: 1}, result)
	assert.Nil(t, main.SampleURL)
}

func TestLinker_UnrelatedNotLinked(t *testing.T) {
	main := named("https://x/1", "Сенча")
	sample := named("https://x/2", "Пробник Да Хун Пао")

	result := NewLinker(0).Link([]*domain.Tea{sample}, []*domain.Tea{main})

	assert.Equal(t, 0, result.Linked)
	assert.Equal(t, 1, result.NotLinked)
}

func TestLinker_NamelessSampleNotLinked(t *testing.T) {
	main := named("https://x/1", "Сенча")
	sample := NewTea("https://x/2")

	result := NewLinker(80).Link([]*domain.Tea{&sample}, []*domain.Tea{main})

	assert.Equal(t, LinkResult{NotLinked: 1}, result)
}

func TestLinker_PrefixMatchEitherDirection(t *testing.T) {
	tests := []struct {
		name       string
		mainName   string
		sampleName string
		linked     bool
	}{
		// 10 of 12 runes is 83%.
		{"sample longer", "да хун пао", "Пробник да хун пао 2", true},
		{"main longer", "да хун пао 2", "Пробник да хун пао", true},
		// 10 of 13 runes is 76%.
		{"ratio below threshold", "да хун пао", "Пробник да хун пао 20", false},
		{"not a prefix", "да хун пао", "Пробник хун пао", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main := named("https://x/main", tt.mainName)
			sample := named("https://x/sample", tt.sampleName)

			result := NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{main})

			assert.Equal(t, tt.linked, result.Linked == 1)
			assert.Equal(t, tt.linked, main.HasSample())
		})
	}
}

func TestLinker_LongestOverlapWins(t *testing.T) {
	short := named("https://x/short", "abcdefghij")
	long := named("https://x/long", "abcdefghijkl")
	sample := named("https://x/sample", "abcdefghijk")

	NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{short, long})

	assert.False(t, short.HasSample())
	assert.True(t, long.HasSample())
}

func TestLinker_TieGoesToFirstSeen(t *testing.T) {
	first := named("https://x/first", "abcdefghij")
	second := named("https://x/second", "abcdefghij")
	sample := named("https://x/sample", "abcdefghijk")

	NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{first, second})

	assert.True(t, first.HasSample())
	assert.False(t, second.HasSample())
}

func TestLinker_ExactMatchShortCircuits(t *testing.T) {
	prefix := named("https://x/prefix", "abcdefghijk")
	exact := named("https://x/exact", "abcdefghij")
	sample := named("https://x/sample", "Пробник abcdefghij")

	NewLinker(80).Link([]*domain.Tea{sample}, []*domain.Tea{prefix, exact})

	assert.False(t, prefix.HasSample())
	assert.True(t, exact.HasSample())
}

func TestLinker_ConfigurableThreshold(t *testing.T) {
	main := named("https://x/main", "да хун пао")
	sample := named("https://x/sample", "Пробник да хун пао 20")

	result := NewLinker(70).Link([]*domain.Tea{sample}, []*domain.Tea{main})

	assert.Equal(t, 1, result.Linked)
}
