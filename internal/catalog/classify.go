package catalog

import (
	"strings"

	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// Kind is the role a record plays during linking.
type Kind string

// Record kinds.
const (
	KindMain   Kind = "product"
	KindSample Kind = "sample"
	KindSet    Kind = "set"
)

// IsMain reports whether records of this kind are stored and embedded.
// Sets are main products.
func (k Kind) IsMain() bool {
	return k != KindSample
}

// name prefixes stripped before comparing, applied in order.
var namePrefixes = []string{"copy: ", "пробник ", "sample "}

// IsSampleURL reports whether url points at a trial-size listing.
func IsSampleURL(url string) bool {
	return strings.Contains(url, "probnik") || strings.Contains(url, "/probe/")
}

// IsSetListing reports whether a listing is a bundle, judged by URL or name.
func IsSetListing(url, name string) bool {
	if strings.Contains(url, "nabor") || strings.Contains(url, "набор") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "набор") || strings.Contains(lower, "nabor")
}

// Classify returns the kind of a scraped record.
// A sample that is also a bundle counts as a set.
func Classify(tea *domain.Tea) Kind {
	if tea.IsSet {
		return KindSet
	}
	if tea.IsSample {
		name := ""
		if tea.Name != nil {
			name = *tea.Name
		}
		if IsSetListing(tea.URL, name) {
			return KindSet
		}
		return KindSample
	}
	return KindMain
}

// NormalizeName lowercases and trims a product name and strips the
// known copy and sample prefixes.
func NormalizeName(name string) string {
	n := foldName(name)
	for _, prefix := range namePrefixes {
		n = strings.TrimPrefix(n, prefix)
	}
	return strings.TrimSpace(n)
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
