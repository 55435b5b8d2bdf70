package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepair/catalog-cli/internal/config"
	"github.com/pricepair/catalog-cli/internal/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Sources.A = config.SourceConfig{ID: "walmart", Name: "Walmart"}
	cfg.Sources.B = config.SourceConfig{ID: "superstore", Name: "Real Canadian Superstore"}
	cfg.Matcher = config.MatcherConfig{
		FuzzyThreshold:    0.85,
		EarlyExitScore:    0.98,
		CategoryThreshold: 0.7,
		TitleWeight:       0.7,
		BrandWeight:       0.3,
		BrandPoolMin:      100,
		BrandlessPool:     50,
		GlobalPool:        500,
		MinTitleLength:    5,
	}
	return cfg
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig())
	require.NoError(t, err)

	a := []model.Listing{
		{Source: "walmart", Brand: "Neilson", Title: "Neilson Chocolate Milk 473 ml", Price: "2.49", ProductID: "w1"},
		{Source: "walmart", Title: "Walmart Only Granola Bars", ProductID: "w2"},
	}
	b := []model.Listing{
		{Source: "superstore", Brand: "Neilson", Title: "Chocolate Milk 473 ml", Price: "2.79", ProductID: "s1"},
		{Source: "superstore", Title: "Superstore Only Oat Bars", ProductID: "s2"},
	}

	res := p.Reconcile(a, b)

	assert.Equal(t, 2, res.Stats.LoadedA)
	assert.Equal(t, 2, res.Stats.LoadedB)
	assert.Equal(t, 1, res.Stats.MatchedA)
	assert.Equal(t, 1, res.Stats.MatchedB)
	assert.Equal(t, 1, res.Stats.ByConfidence[model.ConfidenceHigh])
	assert.Equal(t, 1, res.Stats.CheaperA)
	assert.Equal(t, 3, res.Stats.Products)
	assert.Equal(t, 1, res.Stats.MultiStore)
	assert.Len(t, res.Unmatched, 2)

	// Catalog ids are sequential over the sorted items.
	for i, item := range res.Catalog.Items {
		assert.Equal(t, i+1, item.ID)
	}

	var matchedTitles, stores []string
	for _, item := range res.Catalog.Items {
		if item.Matched() {
			matchedTitles = append(matchedTitles, item.Title)
		}
	}
	assert.Equal(t, []string{"Neilson Chocolate Milk 473 ml"}, matchedTitles)

	for _, rec := range res.Unmatched {
		stores = append(stores, rec.Store)
	}
	assert.ElementsMatch(t, []string{"walmart", "superstore"}, stores)
}

func TestReconcileDeterministic(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig())
	require.NoError(t, err)

	a := []model.Listing{
		{Source: "walmart", Brand: "Neilson", Title: "Neilson Chocolate Milk 473 ml", Price: "2.49", ProductID: "w1"},
		{Source: "walmart", Brand: "Dairyland", Title: "Dairyland 2% Milk 4 L", Price: "6.49", ProductID: "w2"},
		{Source: "walmart", Title: "Banana Milk Shake", SearchQuery: "milk drinks", ProductID: "w3"},
	}
	b := []model.Listing{
		{Source: "superstore", Title: "Banana Milk", SearchQuery: "milk drinks", ProductID: "s3"},
		{Source: "superstore", Brand: "Dairyland", Title: "2% Milk 4 L", Price: "5.99", ProductID: "s2"},
		{Source: "superstore", Brand: "Neilson", Title: "Chocolate Milk 473 ml", Price: "2.79", ProductID: "s1"},
	}

	first := p.Reconcile(a, b)
	for i := 0; i < 5; i++ {
		again := p.Reconcile(a, b)
		assert.Equal(t, first.Catalog, again.Catalog)
		assert.Equal(t, first.Unmatched, again.Unmatched)
		assert.Equal(t, first.Stats, again.Stats)
	}
}

func TestReconcileEmpty(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig())
	require.NoError(t, err)

	res := p.Reconcile(nil, nil)
	assert.NotNil(t, res.Catalog.Items)
	assert.Empty(t, res.Catalog.Items)
	assert.Empty(t, res.Unmatched)
	assert.Zero(t, res.Stats.Products)
}

func TestRunLoadsFromFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.jsonl")
	bPath := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(aPath, []byte(`{"brand":"Neilson","title":"Neilson Chocolate Milk 473 ml","price":"2.49","product_id":"w1"}
`), 0644))
	require.NoError(t, os.WriteFile(bPath, []byte(`{"brand":"Neilson","title":"Chocolate Milk 473 ml","price":"2.79","product_id":"s1"}
`), 0644))

	cfg := testConfig()
	cfg.Sources.A.Input = aPath
	cfg.Sources.B.Input = bPath

	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Products)
	assert.Equal(t, 1, res.Stats.MultiStore)
	require.Len(t, res.Catalog.Items, 1)
	assert.Equal(t, "walmart", res.Catalog.Items[0].CheaperStore)

	// Source tagging from config overrides anything in the file.
	offers := res.Catalog.Items[0].Offers
	require.Len(t, offers, 2)
	assert.Equal(t, "Walmart", offers[0].StoreName)
	assert.Equal(t, "Real Canadian Superstore", offers[1].StoreName)
}

func TestNewWithTablesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tables.yaml")
	yaml := `
brand_aliases:
  acme:
    - acme
    - acme foods
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg := testConfig()
	cfg.Matcher.TablesFile = path

	p, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "acme", p.Normalizer().Brand("Acme Foods"))
}

func TestNewWithMissingTablesFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Matcher.TablesFile = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := New(cfg)
	assert.Error(t, err)
}
