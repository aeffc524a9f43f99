package qdrant

import "github.com/custodia-labs/chai-cli/internal/core/domain"

// Payload keys. Keyword and bool indexes are created for the filterable ones.
const (
	fieldID           = "id"
	fieldURL          = "url"
	fieldSeries       = "series"
	fieldInStock      = "in_stock"
	fieldIsSample     = "is_sample"
	fieldIsSet        = "is_set"
	fieldHasEmbedding = "has_embedding"
)

// payloadIndexes maps indexed payload fields to their schema.
var payloadIndexes = []struct {
	field  string
	schema string
}{
	{fieldURL, "keyword"},
	{fieldID, "keyword"},
	{fieldSeries, "keyword"},
	{fieldInStock, "bool"},
	{fieldIsSample, "bool"},
	{fieldIsSet, "bool"},
	{fieldHasEmbedding, "bool"},
}

type translatedFilter struct {
	Must    []any
	MustNot []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

// searchFilter translates search filters into a Qdrant filter. Records
// without an embedding are always excluded.
func searchFilter(filters domain.SearchFilters) map[string]any {
	out := translatedFilter{
		Must: []any{qdrantMatchCondition(fieldHasEmbedding, true)},
	}
	if filters.ExcludeSamples {
		out.MustNot = append(out.MustNot, qdrantMatchCondition(fieldIsSample, true))
	}
	if filters.ExcludeSets {
		out.MustNot = append(out.MustNot, qdrantMatchCondition(fieldIsSet, true))
	}
	if filters.OnlyInStock {
		out.Must = append(out.Must, qdrantMatchCondition(fieldInStock, true))
	}
	if filters.Series != "" {
		out.Must = append(out.Must, qdrantMatchCondition(fieldSeries, filters.Series))
	}
	return out.asMap()
}

// fieldFilter matches records whose payload field equals value.
func fieldFilter(field string, value any) map[string]any {
	return translatedFilter{Must: []any{qdrantMatchCondition(field, value)}}.asMap()
}

func qdrantMatchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key": key,
		"match": map[string]any{
			"value": value,
		},
	}
}
