// Package catalog assembles the final product collection and writes the
// run's output artifacts. Everything here is deterministic given
// deterministic upstream ordering.
package catalog

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/pricepair/catalog-cli/internal/model"
	"github.com/pricepair/catalog-cli/internal/normalize"
)

// Document is the top-level catalog shape handed to the serving layer.
// The shape is stable regardless of input size, including zero products.
type Document struct {
	Items []model.CanonicalProduct `json:"items"`
}

// Assemble sorts products by (casefolded title, casefolded brand),
// assigns stable sequential ids, and wraps them as the catalog document.
func Assemble(products []model.CanonicalProduct) Document {
	sorted := make([]model.CanonicalProduct, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := normalize.Casefold(sorted[i].Title), normalize.Casefold(sorted[j].Title)
		if ti != tj {
			return ti < tj
		}
		return normalize.Casefold(sorted[i].Brand) < normalize.Casefold(sorted[j].Brand)
	})
	for i := range sorted {
		sorted[i].ID = i + 1
	}

	// Non-nil so the document always serializes as {"items": []}.
	if sorted == nil {
		sorted = []model.CanonicalProduct{}
	}
	return Document{Items: sorted}
}

// WriteDocument writes the catalog document as indented JSON.
func WriteDocument(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "catalog: create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrapf(err, "catalog: encode %s", path)
	}
	return f.Close()
}

// WriteMatched writes one JSON line per product with offers from more
// than one store, ordered by descending price difference (largest gaps
// first, the review-friendly order) with catalog order breaking ties.
func WriteMatched(path string, doc Document) error {
	var matched []model.CanonicalProduct
	for _, p := range doc.Items {
		if p.StoreCount >= 2 {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return diffOf(matched[i]) > diffOf(matched[j])
	})

	return writeLines(path, len(matched), func(enc *json.Encoder, i int) error {
		return enc.Encode(matched[i])
	})
}

// UnmatchedRecord is one singleton listing surfaced for external human
// review, tagged with its source.
type UnmatchedRecord struct {
	Store         string   `json:"store"`
	Brand         string   `json:"brand"`
	Title         string   `json:"title"`
	Price         string   `json:"price"`
	PriceNumeric  *float64 `json:"price_numeric"`
	SearchQuery   string   `json:"search_query"`
	Link          string   `json:"link"`
	ImageURL      string   `json:"image_url"`
	ProductID     string   `json:"product_id"`
	ArticleNumber string   `json:"article_number"`
	PackageSizing string   `json:"package_sizing"`
}

// Unmatched projects a residual listing into its review record.
func Unmatched(l *model.Listing) UnmatchedRecord {
	rec := UnmatchedRecord{
		Store:         l.Source,
		Brand:         l.Brand,
		Title:         l.DisplayTitle(),
		Price:         string(l.Price),
		SearchQuery:   l.SearchQuery,
		Link:          l.URL(),
		ImageURL:      l.ImageURL,
		ProductID:     l.LocalID(),
		ArticleNumber: l.ArticleRef(),
		PackageSizing: l.PackageSizing,
	}
	if v, ok := l.NumericPrice(); ok {
		rec.PriceNumeric = &v
	}
	return rec
}

// WriteUnmatched writes one JSON line per unmatched listing.
func WriteUnmatched(path string, records []UnmatchedRecord) error {
	return writeLines(path, len(records), func(enc *json.Encoder, i int) error {
		return enc.Encode(records[i])
	})
}

func writeLines(path string, n int, encode func(*json.Encoder, int) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "catalog: create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := 0; i < n; i++ {
		if err := encode(enc, i); err != nil {
			return eris.Wrapf(err, "catalog: encode line in %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "catalog: flush %s", path)
	}
	return f.Close()
}

func diffOf(p model.CanonicalProduct) float64 {
	if p.Difference == nil {
		return 0
	}
	return *p.Difference
}
