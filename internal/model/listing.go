package model

import (
	"bytes"
	"strconv"
	"strings"
)

// Listing is one scraped product observation from one retail source.
// It is immutable once loaded: the matcher and merger read it, nothing
// writes it back.
type Listing struct {
	Source string `json:"source,omitempty"`

	Brand       string `json:"brand,omitempty"`
	Title       string `json:"title,omitempty"`
	ProductName string `json:"product_name,omitempty"` // legacy title field used by older scraper output

	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	PackageSizing    string `json:"package_sizing,omitempty"`

	Price        Text   `json:"price,omitempty"`
	PriceRaw     Text   `json:"price_raw,omitempty"`
	PriceNumeric Number `json:"price_numeric,omitempty"`
	WasPrice     Text   `json:"was_price,omitempty"`

	InventoryStatus string `json:"inventory_status,omitempty"`
	Availability    string `json:"availability,omitempty"`

	ProductID     Text `json:"product_id,omitempty"`
	ItemID        Text `json:"item_id,omitempty"`
	ArticleNumber Text `json:"article_number,omitempty"`

	Link       string `json:"link,omitempty"`
	ProductURL string `json:"product_url,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`

	SearchQuery string `json:"search_query,omitempty"`
	Badge       string `json:"badge,omitempty"`
	OfferType   string `json:"offer_type,omitempty"`
	IsSponsored bool   `json:"is_sponsored,omitempty"`

	ReviewCount Number `json:"review_count,omitempty"`
	AvgRating   Number `json:"avg_rating,omitempty"`
}

// DisplayTitle resolves the title across its alternate field names,
// highest priority first.
func (l *Listing) DisplayTitle() string {
	return FirstNonEmpty(l.Title, l.ProductName)
}

// LocalID resolves the source-local product identifier.
func (l *Listing) LocalID() string {
	return FirstNonEmpty(string(l.ProductID), string(l.ItemID), string(l.ArticleNumber))
}

// ArticleRef resolves the article number, falling back to the item id.
func (l *Listing) ArticleRef() string {
	return FirstNonEmpty(string(l.ArticleNumber), string(l.ItemID))
}

// Inventory resolves the availability text across field variants.
func (l *Listing) Inventory() string {
	return FirstNonEmpty(l.InventoryStatus, l.Availability)
}

// URL resolves the product page link.
func (l *Listing) URL() string {
	return FirstNonEmpty(l.Link, l.ProductURL)
}

// NumericPrice extracts a numeric price, preferring the pre-parsed field
// and falling back to the currency-formatted strings. Unparseable input
// reports ok=false, never an error.
func (l *Listing) NumericPrice() (float64, bool) {
	if l.PriceNumeric.Valid {
		return l.PriceNumeric.Value, true
	}
	for _, raw := range []string{string(l.PriceRaw), string(l.Price)} {
		if v, ok := parseCurrency(raw); ok {
			return v, true
		}
	}
	return 0, false
}

// parseCurrency turns "$4.60" or "1,299.99" into a float.
func parseCurrency(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FirstNonEmpty returns the first non-empty value in priority order.
// Alternate field names for the same concept go through this helper so
// the priority is written down once per concept.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Text is a JSON string that tolerates numeric input: scrapers emit ids
// and prices as either strings or bare numbers depending on vintage.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

// Number is an optional float that tolerates string-encoded numerics and
// null. Absence degrades the corresponding matching signal to unknown
// rather than rejecting the listing.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(unquoted)
		if s == "" {
			*n = Number{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// A malformed numeric field degrades to unknown rather than
		// failing the whole line.
		*n = Number{}
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// Float returns a *float64 view for omit-when-absent JSON output.
func (n Number) Float() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
