package catalog

import (
	"strings"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// EmbeddingText renders the fields that describe a tea into the text
// sent to the embedding model. Absent fields are omitted.
func EmbeddingText(tea domain.Tea) string {
	var parts []string

	if s := deref(tea.Name); s != "" {
		parts = append(parts, "Название: "+s)
	}
	if s := deref(tea.Description); s != "" {
		parts = append(parts, "Описание: "+s)
	}
	if len(tea.Composition) > 0 {
		parts = append(parts, "Состав: "+strings.Join(tea.Composition, ", "))
	}
	if len(tea.FullComposition) > 0 {
		parts = append(parts, "Подробный состав: "+strings.Join(tea.FullComposition, ", "))
	}
	if s := deref(tea.Series); s != "" {
		parts = append(parts, "Серия: "+s)
	}
	if len(tea.SearchTags) > 0 {
		parts = append(parts, "Теги: "+strings.Join(tea.SearchTags, ", "))
	}

	return strings.Join(parts, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
