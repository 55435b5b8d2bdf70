package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepair/catalog-cli/internal/model"
)

func testMerger() *Merger {
	return New([]Source{
		{ID: "walmart", Name: "Walmart"},
		{ID: "superstore", Name: "Real Canadian Superstore"},
	})
}

func TestPairPriceComparison(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Chocolate Milk", Price: "$3.99", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Chocolate Milk 473 ml", Price: "$4.49", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")

	assert.Equal(t, 2, p.StoreCount)
	require.NotNil(t, p.Difference)
	assert.InDelta(t, 0.50, *p.Difference, 1e-9)
	require.NotNil(t, p.DifferencePercent)
	assert.InDelta(t, 11.79, *p.DifferencePercent, 1e-9)
	assert.Equal(t, "walmart", p.CheaperStore)
	require.NotNil(t, p.MinPrice)
	assert.InDelta(t, 3.99, *p.MinPrice, 1e-9)
	assert.Equal(t, "$3.99", p.MinPriceDisplay)
	assert.Equal(t, model.ConfidenceHigh, p.MatchConfidence)
}

func TestPairSamePriceWithinTolerance(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Milk", Price: "2.99", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Milk 1L", Price: "2.995", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")

	assert.Equal(t, "same", p.CheaperStore)
	require.NotNil(t, p.Difference)
	assert.InDelta(t, 0.01, *p.Difference, 1e-9)
}

func TestPairNoComparisonWithoutTwoPrices(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Milk", Price: "2.99", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Milk 1L", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceMedium, "brand_title_different_size")

	assert.Nil(t, p.Difference)
	assert.Nil(t, p.DifferencePercent)
	assert.Empty(t, p.CheaperStore)
	require.NotNil(t, p.MinPrice)
	assert.InDelta(t, 2.99, *p.MinPrice, 1e-9)
}

func TestPairLongerTitleWins(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Milk", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Neilson Chocolate Milk 473 ml", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
	assert.Equal(t, "Neilson Chocolate Milk 473 ml", p.Title)
}

func TestPairTitleTieKeepsFirstSide(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Whole Milk", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Fresh Milk", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
	assert.Equal(t, "Whole Milk", p.Title)
}

func TestPairFieldPriority(t *testing.T) {
	t.Parallel()

	m := testMerger()

	t.Run("priority source wins when both set", func(t *testing.T) {
		t.Parallel()
		a := &model.Listing{Source: "walmart", Title: "Milk", Description: "from walmart", ImageURL: "w.jpg", ProductID: "w1"}
		b := &model.Listing{Source: "superstore", Title: "Milk 1L", Description: "from superstore", ImageURL: "s.jpg", ProductID: "s1"}

		p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
		assert.Equal(t, "from walmart", p.Description)
		assert.Equal(t, "w.jpg", p.ImageURL)
	})

	t.Run("falls through to second source", func(t *testing.T) {
		t.Parallel()
		a := &model.Listing{Source: "walmart", Title: "Milk", ProductID: "w1"}
		b := &model.Listing{Source: "superstore", Title: "Milk 1L", ShortDescription: "short desc", ImageURL: "s.jpg", ProductID: "s1"}

		p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
		assert.Equal(t, "short desc", p.Description)
		assert.Equal(t, "s.jpg", p.ImageURL)
	})

	t.Run("priority holds regardless of pair order", func(t *testing.T) {
		t.Parallel()
		a := &model.Listing{Source: "superstore", Title: "Milk 1L", Description: "from superstore", ProductID: "s1"}
		b := &model.Listing{Source: "walmart", Title: "Milk", Description: "from walmart", ProductID: "w1"}

		p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
		assert.Equal(t, "from walmart", p.Description)
	})
}

func TestPairDedupesOffers(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Milk", ProductID: "w1", Price: "2.99"}
	b := &model.Listing{Source: "walmart", Title: "Milk", ProductID: "w1", Price: "3.19"}

	p := m.Pair(a, b, model.ConfidenceLow, "fuzzy_match_0.90")

	assert.Len(t, p.Offers, 1)
	assert.Equal(t, 1, p.StoreCount)
	assert.Nil(t, p.Difference, "one offer cannot produce a comparison")
}

func TestPairSearchQueries(t *testing.T) {
	t.Parallel()

	m := testMerger()
	a := &model.Listing{Source: "walmart", Title: "Milk", SearchQuery: "milk", ProductID: "w1"}
	b := &model.Listing{Source: "superstore", Title: "Milk 1L", SearchQuery: "dairy", ProductID: "s1"}

	p := m.Pair(a, b, model.ConfidenceHigh, "exact_brand_title_size")
	assert.Equal(t, []string{"dairy", "milk"}, p.SearchQueries)
}

func TestSingleton(t *testing.T) {
	t.Parallel()

	m := testMerger()
	l := &model.Listing{
		Source:      "walmart",
		Brand:       "Neilson",
		Title:       "Chocolate Milk",
		Price:       "2.49",
		ProductID:   "w1",
		SearchQuery: "milk",
	}

	p := m.Singleton(l)

	assert.Equal(t, "Neilson", p.Brand)
	assert.Equal(t, 1, p.StoreCount)
	require.Len(t, p.Offers, 1)
	assert.Equal(t, "Walmart", p.Offers[0].StoreName)
	assert.Equal(t, []string{"milk"}, p.SearchQueries)
	require.NotNil(t, p.MinPrice)
	assert.InDelta(t, 2.49, *p.MinPrice, 1e-9)
	assert.Equal(t, "$2.49", p.MinPriceDisplay)
	assert.Nil(t, p.Difference)
	assert.Empty(t, p.MatchMethod)
}

func TestOffer(t *testing.T) {
	t.Parallel()

	m := testMerger()

	t.Run("field resolution", func(t *testing.T) {
		t.Parallel()
		l := &model.Listing{
			Source:       "superstore",
			ItemID:       "i7",
			PriceRaw:     "$4.60",
			Availability: "in stock",
			ProductURL:   "https://example.com/p/7",
			ReviewCount:  model.Number{Value: 12, Valid: true},
		}

		o := m.Offer(l)
		assert.Equal(t, "Real Canadian Superstore", o.StoreName)
		assert.Equal(t, "i7", o.ProductID)
		assert.Equal(t, "i7", o.ArticleNumber)
		assert.Equal(t, "in stock", o.InventoryStatus)
		assert.Equal(t, "https://example.com/p/7", o.Link)
		assert.Equal(t, "OG", o.OfferType, "offer type defaults when missing")
		require.NotNil(t, o.PriceNumeric)
		assert.InDelta(t, 4.60, *o.PriceNumeric, 1e-9)
		require.NotNil(t, o.ReviewCount)
		assert.InDelta(t, 12, *o.ReviewCount, 1e-9)
		assert.Nil(t, o.AvgRating)
	})

	t.Run("unknown store keeps id as name", func(t *testing.T) {
		t.Parallel()
		o := m.Offer(&model.Listing{Source: "costco"})
		assert.Equal(t, "costco", o.StoreName)
	})
}
