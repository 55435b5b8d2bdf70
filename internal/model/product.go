package model

// Confidence labels which cascade stage produced a match. It strictly
// decreases through the cascade: each later stage relaxes a signal the
// previous stage trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchCandidate pairs one listing from each source. Indices refer to
// the input order of the respective source collections. A listing
// appears in at most one candidate per run.
type MatchCandidate struct {
	A          int
	B          int
	Confidence Confidence
	Method     string
}

// Offer is one store's priced listing within a canonical product.
type Offer struct {
	Store           string   `json:"store"`
	StoreName       string   `json:"store_name"`
	ProductID       string   `json:"product_id,omitempty"`
	ArticleNumber   string   `json:"article_number,omitempty"`
	Price           string   `json:"price,omitempty"`
	PriceRaw        string   `json:"price_raw,omitempty"`
	PriceNumeric    *float64 `json:"price_numeric"`
	InventoryStatus string   `json:"inventory_status,omitempty"`
	Link            string   `json:"link,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Badge           string   `json:"badge,omitempty"`
	OfferType       string   `json:"offer_type,omitempty"`
	IsSponsored     bool     `json:"is_sponsored"`
	ReviewCount     *float64 `json:"review_count,omitempty"`
	AvgRating       *float64 `json:"avg_rating,omitempty"`
	SearchQuery     string   `json:"search_query,omitempty"`
}

// PriceComparison holds the derived cross-store price fields. Populated
// only when exactly two offers carry parseable prices.
type PriceComparison struct {
	Difference        *float64 `json:"price_difference,omitempty"`
	DifferencePercent *float64 `json:"price_difference_percent,omitempty"`
	CheaperStore      string   `json:"cheaper_store,omitempty"`
}

// CanonicalProduct is the merged entity representing one physical
// product across stores. Created once by the merger, never mutated
// afterwards.
type CanonicalProduct struct {
	ID            int      `json:"id"`
	Brand         string   `json:"brand"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	PackageSizing string   `json:"package_sizing,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	SearchQueries []string `json:"search_queries,omitempty"`

	Offers     []Offer `json:"offers"`
	StoreCount int     `json:"store_count"`

	MinPrice        *float64 `json:"min_price"`
	MinPriceDisplay string   `json:"min_price_display,omitempty"`

	MatchConfidence Confidence `json:"match_confidence,omitempty"`
	MatchMethod     string     `json:"match_method,omitempty"`
	PriceComparison
}

// Matched reports whether the product was assembled from a cross-source
// pair rather than a singleton listing.
func (p *CanonicalProduct) Matched() bool {
	return p.MatchMethod != ""
}
