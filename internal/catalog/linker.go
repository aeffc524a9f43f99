package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// DefaultMinOverlapPercent is the prefix-match threshold used when none is configured.
const DefaultMinOverlapPercent = domain.DefaultMinOverlapPercent

// LinkResult counts the outcome of a linking pass.
type LinkResult struct {
	Linked    int
	NotLinked int
}

// Linker associates sample listings with their full-size products by name.
type Linker struct {
	// MinOverlapPercent is the smallest accepted ratio, in percent, between the
	// shorter and the longer name of a prefix match. Zero selects the default.
	MinOverlapPercent int
}

// NewLinker creates a linker with the given threshold.
func NewLinker(minOverlapPercent int) *Linker {
	return &Linker{MinOverlapPercent: minOverlapPercent}
}

func (l *Linker) threshold() int {
	if l == nil || l.MinOverlapPercent <= 0 {
		return DefaultMinOverlapPercent
	}
	return l.MinOverlapPercent
}

// Link sets SampleURL on the best matching main product of every sample.
//
// Sample names are normalised with NormalizeName; main names are only trimmed
// and lowercased, so a main titled with a sample prefix keeps it. An exact match
// ends the scan. Otherwise a main qualifies when one name is a prefix of the
// other and the overlap ratio reaches the threshold; the longest overlap wins
// and ties go to the first seen.
// Samples without a name or without a match are counted as not linked.
func (l *Linker) Link(samples, mains []*domain.Tea) LinkResult {
	var result LinkResult

	normalized := make([]string, len(mains))
	for i, m := range mains {
		if m.Name != nil {
			normalized[i] = foldName(*m.Name)
		}
	}

	for _, sample := range samples {
		if sample.Name == nil {
			result.NotLinked++
			continue
		}

		best := l.bestMatch(NormalizeName(*sample.Name), normalized)
		if best < 0 {
			result.NotLinked++
			continue
		}

		url := sample.URL
		mains[best].SampleURL = &url
		result.Linked++
	}

	return result
}

// bestMatch returns the index of the best candidate for name, or -1.
func (l *Linker) bestMatch(name string, candidates []string) int {
	if name == "" {
		return -1
	}

	best, bestLen := -1, 0
	for i, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if candidate == name {
			return i
		}
		overlap, ok := l.prefixOverlap(name, candidate)
		if ok && overlap > bestLen {
			best, bestLen = i, overlap
		}
	}
	return best
}

// prefixOverlap returns the length of the shorter name when one name is a
// prefix of the other and the overlap ratio reaches the threshold.
func (l *Linker) prefixOverlap(a, b string) (int, bool) {
	if !strings.HasPrefix(a, b) && !strings.HasPrefix(b, a) {
		return 0, false
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter, longer := min(la, lb), max(la, lb)
	if longer == 0 || shorter*100/longer < l.threshold() {
		return 0, false
	}
	return shorter, true
}
