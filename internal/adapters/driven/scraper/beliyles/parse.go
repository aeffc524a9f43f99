package beliyles

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/chai-cli/internal/catalog"
	"github.com/custodia-labs/chai-cli/internal/core/domain"
)

// Text markers inside the product description.
const (
	markerComposition     = "Состав:"
	markerFullComposition = "Подробный состав:"
	markerSearchTags      = "Также для поиска:"
	markerStorage         = "Хранить"
	markerManufactured    = "Дата изготовления"
	markerLineBreak       = "<br"
	productAssignment     = "var product = "
	seriesTitle           = "Серия"
	packagingKey          = "Упаковка"
)

var (
	productJSONRe = regexp.MustCompile(`var product = (\{.+?\});`)
	volumeRe      = regexp.MustCompile(`(\d+[-~≈]?\d*)`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
)

// Parse turns a product page into a record.
//
// Pages with neither a name nor images, and discontinued samples, are
// rejected with an error wrapping domain.ErrSkippedProduct.
func (s *Scraper) Parse(url, page string) (*domain.Tea, error) {
	return ParsePage(url, page)
}

// ParsePage is Parse without a scraper.
func ParsePage(url, page string) (*domain.Tea, error) {
	tea := catalog.NewTea(url)

	if data, ok := productData(page); ok {
		applyProduct(&tea, data)
	}

	name := ""
	if tea.Name != nil {
		name = *tea.Name
	}
	tea.IsSample = catalog.IsSampleURL(url)
	tea.IsSet = catalog.IsSetListing(url, name)

	if tea.Name == nil && len(tea.Images) == 0 {
		return nil, fmt.Errorf("%w: no product data at %s", domain.ErrSkippedProduct, url)
	}
	if tea.IsSample && isDiscontinued(&tea) {
		return nil, fmt.Errorf("%w: discontinued sample %q", domain.ErrSkippedProduct, name)
	}
	return &tea, nil
}

// isDiscontinued reports a retired sample: the name ends in " r", there is
// no price and nothing is in stock.
func isDiscontinued(tea *domain.Tea) bool {
	if tea.Name == nil {
		return false
	}
	lower := strings.ToLower(*tea.Name)
	suffix := strings.HasSuffix(lower, " r") || strings.Contains(lower, ` r"`)
	noPrice := tea.Price == nil || *tea.Price == ""
	return suffix && noPrice && !tea.InStock
}

// productData finds the first script assigning a decodable product object.
func productData(page string) (map[string]any, bool) {
	z := html.NewTokenizer(strings.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil, false
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			text := string(z.Text())
			if !strings.Contains(text, productAssignment) {
				continue
			}
			m := productJSONRe.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			var data map[string]any
			if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
				continue
			}
			return data, true
		}
	}
}

func applyProduct(tea *domain.Tea, data map[string]any) {
	if title, ok := data["title"].(string); ok {
		tea.Name = domain.StringPtr(title)
	}
	if price, ok := data["price"].(string); ok {
		tea.Price = domain.StringPtr(price)
	}

	if gallery, ok := data["gallery"].([]any); ok {
		for _, item := range gallery {
			if img, ok := field[string](item, "img"); ok {
				tea.Images = append(tea.Images, img)
			}
		}
	}

	editions, _ := data["editions"].([]any)
	for _, edition := range editions {
		packaging, ok1 := field[string](edition, packagingKey)
		price, ok2 := field[string](edition, "price")
		quantity, ok3 := field[string](edition, "quantity")
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		tea.PriceVariants = append(tea.PriceVariants, domain.PriceVariant{
			Packaging: packaging,
			Price:     price,
			Quantity:  quantity,
		})
	}
	for _, v := range tea.PriceVariants {
		if v.InStock() {
			tea.InStock = true
		}
		if m := volumeRe.FindStringSubmatch(v.Packaging); m != nil {
			tea.VolumeOptions = append(tea.VolumeOptions, m[1])
		}
	}

	if !tea.InStock {
		if quantity, ok := data["quantity"].(string); ok {
			tea.InStock = domain.PriceVariant{Quantity: quantity}.InStock()
		}
	}

	if text, ok := data["text"].(string); ok {
		applyDescription(tea, text)
	}

	if len(editions) > 0 {
		first := editions[0]
		x, okX := intField(first, "pack_x")
		y, okY := intField(first, "pack_y")
		z, okZ := intField(first, "pack_z")
		if okX && okY && okZ {
			tea.Dimensions = domain.StringPtr(fmt.Sprintf("%dx%dx%d mm", x, y, z))
		}
		if m, ok := intField(first, "pack_m"); ok {
			tea.Weight = domain.StringPtr(fmt.Sprintf("%d g", m))
		}
	}

	if chars, ok := data["characteristics"].([]any); ok {
		for _, c := range chars {
			if title, _ := field[string](c, "title"); title != seriesTitle {
				continue
			}
			if value, ok := field[string](c, "value"); ok {
				tea.Series = domain.StringPtr(value)
			}
		}
	}
}

// applyDescription splits the description HTML on its text markers.
func applyDescription(tea *domain.Tea, text string) {
	if i := strings.Index(text, markerComposition); i >= 0 {
		tea.Description = domain.StringPtr(stripHTML(text[:i]))
	}
	if v, ok := between(text, markerComposition, markerLineBreak); ok {
		tea.Composition = splitList(v)
	}
	if v, ok := between(text, markerFullComposition, markerLineBreak); ok {
		tea.FullComposition = splitList(v)
	}
	if v, ok := between(text, markerSearchTags, markerLineBreak); ok {
		tea.SearchTags = splitList(v)
	}
	if v, ok := between(text, markerStorage, markerManufactured); ok {
		tea.StorageInfo = domain.StringPtr(v)
	}
}

// between returns the cleaned text after start and before the next end.
func between(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", false
	}
	return cleanHTML(strings.TrimSpace(rest[:j])), true
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// stripHTML replaces tags with spaces and collapses whitespace.
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// cleanHTML removes tags, decodes common entities and collapses whitespace.
func cleanHTML(s string) string {
	s = entityReplacer.Replace(tagRe.ReplaceAllString(s, ""))
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// field reads a typed value from a decoded JSON object.
func field[T any](obj any, key string) (T, bool) {
	var zero T
	m, ok := obj.(map[string]any)
	if !ok {
		return zero, false
	}
	v, ok := m[key].(T)
	return v, ok
}

// intField reads an integral JSON number.
func intField(obj any, key string) (int64, bool) {
	f, ok := field[float64](obj, key)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
