// Package merge builds canonical products from matched pairs and
// unmatched singletons, deriving the cross-store price comparison.
package merge

import (
	"fmt"
	"math"
	"sort"

	"github.com/pricepair/catalog-cli/internal/model"
)

// Source describes one retail source: its id as it appears on listings
// and its display name for offers.
type Source struct {
	ID   string
	Name string
}

// PriceTolerance is the absolute gap below which two offer prices count
// as the same price, so rounding noise is not flagged as a difference.
const PriceTolerance = 0.01

// Merger constructs canonical products. The source order fixes the
// priority used when picking descriptions, images, and package text
// across a matched pair.
type Merger struct {
	order []Source
	names map[string]string
}

// New creates a merger with the given source priority order.
func New(sources []Source) *Merger {
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	return &Merger{order: sources, names: names}
}

// Pair merges a matched pair into one canonical product carrying both
// offers and the derived price comparison.
func (m *Merger) Pair(a, b *model.Listing, conf model.Confidence, method string) model.CanonicalProduct {
	// The longer raw title is usually the more descriptive one; ties
	// keep the first-seen side.
	title := a.DisplayTitle()
	if len(b.DisplayTitle()) > len(title) {
		title = b.DisplayTitle()
	}

	ordered := m.byPriority(a, b)
	p := model.CanonicalProduct{
		Brand:           model.FirstNonEmpty(a.Brand, b.Brand),
		Title:           title,
		Description:     firstDescription(ordered),
		PackageSizing:   firstField(ordered, func(l *model.Listing) string { return l.PackageSizing }),
		ImageURL:        firstField(ordered, func(l *model.Listing) string { return l.ImageURL }),
		SearchQueries:   distinctQueries(a, b),
		MatchConfidence: conf,
		MatchMethod:     method,
	}

	p.Offers = m.dedupeOffers(a, b)
	p.StoreCount = len(p.Offers)
	m.derivePrices(&p)
	return p
}

// Singleton wraps an unmatched listing as a one-offer product.
func (m *Merger) Singleton(l *model.Listing) model.CanonicalProduct {
	p := model.CanonicalProduct{
		Brand:         l.Brand,
		Title:         l.DisplayTitle(),
		Description:   model.FirstNonEmpty(l.Description, l.ShortDescription),
		PackageSizing: l.PackageSizing,
		ImageURL:      l.ImageURL,
		SearchQueries: distinctQueries(l),
		Offers:        []model.Offer{m.Offer(l)},
		StoreCount:    1,
	}
	m.derivePrices(&p)
	return p
}

// Offer projects a listing into its per-store offer.
func (m *Merger) Offer(l *model.Listing) model.Offer {
	o := model.Offer{
		Store:           l.Source,
		StoreName:       m.storeName(l.Source),
		ProductID:       l.LocalID(),
		ArticleNumber:   l.ArticleRef(),
		Price:           string(l.Price),
		PriceRaw:        string(l.PriceRaw),
		InventoryStatus: l.Inventory(),
		Link:            l.URL(),
		ImageURL:        l.ImageURL,
		Badge:           l.Badge,
		OfferType:       model.FirstNonEmpty(l.OfferType, "OG"),
		IsSponsored:     l.IsSponsored,
		ReviewCount:     l.ReviewCount.Float(),
		AvgRating:       l.AvgRating.Float(),
		SearchQuery:     l.SearchQuery,
	}
	if v, ok := l.NumericPrice(); ok {
		o.PriceNumeric = &v
	}
	return o
}

func (m *Merger) storeName(id string) string {
	if name, ok := m.names[id]; ok {
		return name
	}
	return id
}

// dedupeOffers keeps the first offer per (store, store-local id).
func (m *Merger) dedupeOffers(listings ...*model.Listing) []model.Offer {
	type offerKey struct{ store, localID string }
	seen := make(map[offerKey]bool, len(listings))
	var offers []model.Offer
	for _, l := range listings {
		key := offerKey{store: l.Source, localID: l.LocalID()}
		if seen[key] {
			continue
		}
		seen[key] = true
		offers = append(offers, m.Offer(l))
	}
	return offers
}

// derivePrices fills the minimum price and, when exactly two offers
// carry parseable prices, the cross-store comparison.
func (m *Merger) derivePrices(p *model.CanonicalProduct) {
	var priced []model.Offer
	for _, o := range p.Offers {
		if o.PriceNumeric == nil {
			continue
		}
		priced = append(priced, o)
		if p.MinPrice == nil || *o.PriceNumeric < *p.MinPrice {
			p.MinPrice = o.PriceNumeric
		}
	}
	if p.MinPrice != nil {
		p.MinPriceDisplay = fmt.Sprintf("$%.2f", *p.MinPrice)
	}

	if len(priced) != 2 {
		return
	}
	pa, pb := *priced[0].PriceNumeric, *priced[1].PriceNumeric

	diff := round2(math.Abs(pa - pb))
	p.Difference = &diff
	if avg := (pa + pb) / 2; avg > 0 {
		pct := round2(math.Abs(pa-pb) / avg * 100)
		p.DifferencePercent = &pct
	}

	switch {
	case pa < pb-PriceTolerance:
		p.CheaperStore = priced[0].Store
	case pb < pa-PriceTolerance:
		p.CheaperStore = priced[1].Store
	default:
		p.CheaperStore = "same"
	}
}

// byPriority orders the pair by configured source priority; listings
// from unknown sources keep their given order after known ones.
func (m *Merger) byPriority(listings ...*model.Listing) []*model.Listing {
	var ordered []*model.Listing
	used := make(map[int]bool, len(listings))
	for _, s := range m.order {
		for i, l := range listings {
			if !used[i] && l.Source == s.ID {
				ordered = append(ordered, l)
				used[i] = true
			}
		}
	}
	for i, l := range listings {
		if !used[i] {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

func firstDescription(ordered []*model.Listing) string {
	for _, l := range ordered {
		if d := model.FirstNonEmpty(l.Description, l.ShortDescription); d != "" {
			return d
		}
	}
	return ""
}

func firstField(ordered []*model.Listing, get func(*model.Listing) string) string {
	for _, l := range ordered {
		if v := get(l); v != "" {
			return v
		}
	}
	return ""
}

func distinctQueries(listings ...*model.Listing) []string {
	set := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		if l.SearchQuery != "" {
			set[l.SearchQuery] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
