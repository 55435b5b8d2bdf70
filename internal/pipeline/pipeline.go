// Package pipeline wires the reconciliation stages together: ingest two
// sources, run the matching cascade, merge canonical products, assemble
// the catalog. A run is a single-threaded in-memory batch computation;
// re-running on the same inputs produces byte-identical output.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pricepair/catalog-cli/internal/catalog"
	"github.com/pricepair/catalog-cli/internal/config"
	"github.com/pricepair/catalog-cli/internal/ingest"
	"github.com/pricepair/catalog-cli/internal/match"
	"github.com/pricepair/catalog-cli/internal/merge"
	"github.com/pricepair/catalog-cli/internal/model"
	"github.com/pricepair/catalog-cli/internal/normalize"
)

// Pipeline runs the full reconciliation.
type Pipeline struct {
	cfg      *config.Config
	norm     *normalize.Normalizer
	merger   *merge.Merger
	matchCfg match.Config
}

// Stats summarizes one run.
type Stats struct {
	LoadedA, LoadedB   int
	MatchedA, MatchedB int
	ByConfidence       map[model.Confidence]int
	CheaperA, CheaperB int
	SamePrice          int
	Products           int
	MultiStore         int
}

// Result is the run output handed to the artifact writers.
type Result struct {
	Catalog   catalog.Document
	Unmatched []catalog.UnmatchedRecord
	Stats     Stats
}

// New builds a pipeline from config, loading the normalization tables
// once. The tables file is optional; the compiled-in defaults cover the
// shipped source pair.
func New(cfg *config.Config) (*Pipeline, error) {
	tables := normalize.DefaultTables()
	if cfg.Matcher.TablesFile != "" {
		loaded, err := normalize.LoadTables(cfg.Matcher.TablesFile)
		if err != nil {
			return nil, err
		}
		tables = loaded
	}

	return &Pipeline{
		cfg:  cfg,
		norm: normalize.New(tables),
		merger: merge.New([]merge.Source{
			{ID: cfg.Sources.A.ID, Name: cfg.Sources.A.Name},
			{ID: cfg.Sources.B.ID, Name: cfg.Sources.B.Name},
		}),
		matchCfg: match.Config{
			FuzzyThreshold:    cfg.Matcher.FuzzyThreshold,
			EarlyExitScore:    cfg.Matcher.EarlyExitScore,
			CategoryThreshold: cfg.Matcher.CategoryThreshold,
			TitleWeight:       cfg.Matcher.TitleWeight,
			BrandWeight:       cfg.Matcher.BrandWeight,
			BrandPoolMin:      cfg.Matcher.BrandPoolMin,
			BrandlessPool:     cfg.Matcher.BrandlessPool,
			GlobalPool:        cfg.Matcher.GlobalPool,
			MinTitleLength:    cfg.Matcher.MinTitleLength,
		},
	}, nil
}

// Run executes the pipeline end to end.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	a, b, err := ingest.LoadPair(ctx,
		p.cfg.Sources.A.Input, p.cfg.Sources.A.ID,
		p.cfg.Sources.B.Input, p.cfg.Sources.B.ID,
	)
	if err != nil {
		return nil, err
	}

	res := p.Reconcile(a, b)
	zap.L().Info("pipeline complete",
		zap.Int("loaded_a", res.Stats.LoadedA),
		zap.Int("loaded_b", res.Stats.LoadedB),
		zap.Int("matched_a", res.Stats.MatchedA),
		zap.Int("matched_b", res.Stats.MatchedB),
		zap.Int("products", res.Stats.Products),
		zap.Int("multi_store", res.Stats.MultiStore),
	)
	return res, nil
}

// Reconcile runs the in-memory stages over already-loaded listings.
func (p *Pipeline) Reconcile(a, b []model.Listing) *Result {
	matched := match.Run(a, b, p.norm, p.matchCfg)

	products := make([]model.CanonicalProduct, 0, len(a)+len(b))
	stats := Stats{
		LoadedA:      len(a),
		LoadedB:      len(b),
		MatchedA:     len(matched.ConsumedA),
		MatchedB:     len(matched.ConsumedB),
		ByConfidence: make(map[model.Confidence]int),
	}

	for _, cand := range matched.Candidates {
		prod := p.merger.Pair(&a[cand.A], &b[cand.B], cand.Confidence, cand.Method)
		products = append(products, prod)

		stats.ByConfidence[cand.Confidence]++
		switch prod.CheaperStore {
		case p.cfg.Sources.A.ID:
			stats.CheaperA++
		case p.cfg.Sources.B.ID:
			stats.CheaperB++
		case "same":
			stats.SamePrice++
		}
	}

	var unmatched []catalog.UnmatchedRecord
	for idx := range a {
		if !matched.ConsumedA[idx] {
			products = append(products, p.merger.Singleton(&a[idx]))
			unmatched = append(unmatched, catalog.Unmatched(&a[idx]))
		}
	}
	for idx := range b {
		if !matched.ConsumedB[idx] {
			products = append(products, p.merger.Singleton(&b[idx]))
			unmatched = append(unmatched, catalog.Unmatched(&b[idx]))
		}
	}

	doc := catalog.Assemble(products)
	stats.Products = len(doc.Items)
	for _, prod := range doc.Items {
		if prod.StoreCount > 1 {
			stats.MultiStore++
		}
	}

	return &Result{Catalog: doc, Unmatched: unmatched, Stats: stats}
}

// Normalizer exposes the compiled normalizer for diagnostics.
func (p *Pipeline) Normalizer() *normalize.Normalizer {
	return p.norm
}

// Keyer builds a match-key builder sharing the pipeline's tables.
func (p *Pipeline) Keyer() *match.Keyer {
	return match.NewKeyer(p.norm, p.matchCfg.MinTitleLength)
}

// LogStats emits the run summary.
func LogStats(s Stats, aID, bID string) {
	rate := func(matched, loaded int) float64 {
		if loaded == 0 {
			return 0
		}
		return float64(matched) / float64(loaded) * 100
	}
	zap.L().Info("match rates",
		zap.String("source_a", aID),
		zap.Float64("rate_a_pct", rate(s.MatchedA, s.LoadedA)),
		zap.String("source_b", bID),
		zap.Float64("rate_b_pct", rate(s.MatchedB, s.LoadedB)),
	)
	zap.L().Info("confidence breakdown",
		zap.Int("high", s.ByConfidence[model.ConfidenceHigh]),
		zap.Int("medium", s.ByConfidence[model.ConfidenceMedium]),
		zap.Int("low", s.ByConfidence[model.ConfidenceLow]),
	)
	zap.L().Info("price comparison",
		zap.Int("cheaper_"+sanitize(aID), s.CheaperA),
		zap.Int("cheaper_"+sanitize(bID), s.CheaperB),
		zap.Int("same_price", s.SamePrice),
	)
}

func sanitize(id string) string {
	return strings.ReplaceAll(strings.ToLower(id), " ", "_")
}
