package domain

import (
	"strconv"
	"strings"
	"time"
)

// noName is shown for records scraped without a title.
const noName = "No name"

// Tea is a single catalog product.
// Field order defines the canonical serialisation used for content hashing,
// so new fields must only ever be appended.
type Tea struct {
	// ID is the short identity derived from URL, used in API and tool contexts.
	ID string `json:"id"`

	// URL is the natural key of the product page.
	URL string `json:"url"`

	Name  *string `json:"name"`
	Price *string `json:"price"`

	// PriceVariants lists packaging options in page order.
	PriceVariants []PriceVariant `json:"price_variants"`

	Composition     []string `json:"composition"`
	FullComposition []string `json:"full_composition"`

	Description *string `json:"description"`
	Series      *string `json:"series"`

	VolumeOptions []string `json:"volume_options"`
	StorageInfo   *string  `json:"storage_info"`
	Images        []string `json:"images"`
	SearchTags    []string `json:"search_tags"`
	Dimensions    *string  `json:"dimensions"`
	Weight        *string  `json:"weight"`

	// InStock is true when any price variant has a positive quantity.
	InStock bool `json:"in_stock"`

	// IsSample marks trial-size listings.
	IsSample bool `json:"is_sample"`

	// IsSet marks bundle listings. Sets are stored as main products.
	IsSet bool `json:"is_set"`

	// SampleURL points from a main product to its linked sample.
	// It is never set on samples themselves.
	SampleURL *string `json:"sample_url"`
}

// DisplayName returns the product name or a placeholder.
func (t *Tea) DisplayName() string {
	if t.Name == nil || strings.TrimSpace(*t.Name) == "" {
		return noName
	}
	return *t.Name
}

// SeriesName returns the series or an empty string.
func (t *Tea) SeriesName() string {
	if t.Series == nil {
		return ""
	}
	return *t.Series
}

// HasSample reports whether a sample listing is linked to this product.
func (t *Tea) HasSample() bool {
	return t.SampleURL != nil && *t.SampleURL != ""
}

// PrimaryImage returns the first gallery image, if any.
func (t *Tea) PrimaryImage() string {
	if len(t.Images) == 0 {
		return ""
	}
	return t.Images[0]
}

// PriceVariant is one packaging option of a product.
type PriceVariant struct {
	Packaging string `json:"packaging"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
}

// InStock reports whether the variant quantity is a positive integer.
func (v PriceVariant) InStock() bool {
	n, err := strconv.Atoi(strings.TrimSpace(v.Quantity))
	return err == nil && n > 0
}

// StoredTea is a persisted record as returned by point lookups.
type StoredTea struct {
	Tea Tea

	// ContentHash is the fingerprint recorded at the last upsert.
	ContentHash string

	// HasEmbedding reports whether a vector is attached.
	HasEmbedding bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeaCard is a search hit prepared for presentation,
// enriched with the stock status of the linked sample.
type TeaCard struct {
	Tea           Tea     `json:"tea"`
	Score         float64 `json:"score"`
	SampleInStock bool    `json:"sample_in_stock"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
