package match

import (
	"fmt"

	"github.com/pricepair/catalog-cli/internal/model"
	"github.com/pricepair/catalog-cli/internal/normalize"
	"github.com/pricepair/catalog-cli/internal/size"
)

// Key is the normalized (brand, title-core, size) tuple a listing is
// indexed under. Derivation is a pure function of the listing, so keys
// are computed once per run and reused across stages.
type Key struct {
	Brand     string
	TitleCore string

	SizeValue float64
	SizeUnit  size.Unit
	SizeOK    bool
}

// SizeBucket renders the size at fixed precision for exact-stage
// bucketing: two listings must agree down to rounding to share a bucket.
// Unknown sizes all land in the shared "unknown" bucket.
func (k Key) SizeBucket() string {
	if !k.SizeOK {
		return "unknown"
	}
	return fmt.Sprintf("%.3f%s", k.SizeValue, k.SizeUnit)
}

// Indexable reports whether the listing can participate in matching at
// all. Listings with neither brand nor title carry no signal.
func (k Key) Indexable() bool {
	return k.Brand != "" || k.TitleCore != ""
}

func (k Key) exactKey() string {
	return k.Brand + "|||" + k.TitleCore + "|||" + k.SizeBucket()
}

func (k Key) relaxedKey() string {
	return k.Brand + "|||" + k.TitleCore
}

// Keyer derives match keys using a shared normalizer.
type Keyer struct {
	norm           *normalize.Normalizer
	minTitleLength int
}

// NewKeyer creates a key builder. Titles shorter than minTitleLength are
// treated as unmatchable by title.
func NewKeyer(n *normalize.Normalizer, minTitleLength int) *Keyer {
	return &Keyer{norm: n, minTitleLength: minTitleLength}
}

// Key builds the match key for one listing. Size is extracted from the
// title and the package descriptor combined, since either may carry it.
func (kr *Keyer) Key(l *model.Listing) Key {
	title := l.DisplayTitle()

	k := Key{Brand: kr.norm.Brand(l.Brand)}
	if len(title) >= kr.minTitleLength {
		k.TitleCore = kr.norm.TitleCore(title, l.Brand)
	}
	k.SizeValue, k.SizeUnit, k.SizeOK = size.Extract(title + " " + l.PackageSizing)
	return k
}

// keys derives keys for a whole source collection in input order.
func (kr *Keyer) keys(listings []model.Listing) []Key {
	out := make([]Key, len(listings))
	for i := range listings {
		out[i] = kr.Key(&listings[i])
	}
	return out
}
