// Package match implements the tiered matching cascade that pairs
// listings across two sources. Stages run strictly in order of
// decreasing precision, each stage only seeing listings no earlier stage
// consumed, so a loose heuristic can never pre-empt an exact match.
package match

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/pricepair/catalog-cli/internal/model"
	"github.com/pricepair/catalog-cli/internal/normalize"
)

// Config holds the cascade tuning parameters. The pool caps bound the
// fuzzy stage's worst case; they are tuning knobs, not semantic
// contracts.
type Config struct {
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	EarlyExitScore    float64 `yaml:"early_exit_score" mapstructure:"early_exit_score"`
	CategoryThreshold float64 `yaml:"category_threshold" mapstructure:"category_threshold"`
	TitleWeight       float64 `yaml:"title_weight" mapstructure:"title_weight"`
	BrandWeight       float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	BrandPoolMin      int     `yaml:"brand_pool_min" mapstructure:"brand_pool_min"`
	BrandlessPool     int     `yaml:"brandless_pool" mapstructure:"brandless_pool"`
	GlobalPool        int     `yaml:"global_pool" mapstructure:"global_pool"`
	MinTitleLength    int     `yaml:"min_title_length" mapstructure:"min_title_length"`
}

// DefaultConfig returns the tuned cascade parameters.
func DefaultConfig() Config {
	return Config{
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
}

// Result is the cascade output: the ordered candidates plus the consumed
// index sets per side. Indices not present in a consumed set are the
// residual unmatched listings.
type Result struct {
	Candidates []model.MatchCandidate
	ConsumedA  map[int]bool
	ConsumedB  map[int]bool
}

type cascade struct {
	a, b         []model.Listing
	aKeys, bKeys []Key
	cfg          Config

	consumedA map[int]bool
	consumedB map[int]bool
	out       []model.MatchCandidate
}

// Run executes the four-stage cascade over two source collections.
// Iteration follows input order everywhere, which makes the
// first-unconsumed-wins tie-breaks deterministic.
func Run(a, b []model.Listing, n *normalize.Normalizer, cfg Config) Result {
	kr := NewKeyer(n, cfg.MinTitleLength)
	c := &cascade{
		a: a, b: b,
		aKeys: kr.keys(a), bKeys: kr.keys(b),
		cfg:       cfg,
		consumedA: make(map[int]bool),
		consumedB: make(map[int]bool),
	}

	exact := c.exactStage()
	relaxed := c.relaxedStage()
	fuzzy := c.fuzzyStage()
	categorical := c.categoryStage()

	zap.L().Info("cascade complete",
		zap.Int("exact", exact),
		zap.Int("relaxed", relaxed),
		zap.Int("fuzzy", fuzzy),
		zap.Int("categorical", categorical),
		zap.Int("total", len(c.out)),
	)

	return Result{Candidates: c.out, ConsumedA: c.consumedA, ConsumedB: c.consumedB}
}

func (c *cascade) claim(aIdx, bIdx int, conf model.Confidence, method string) {
	c.out = append(c.out, model.MatchCandidate{A: aIdx, B: bIdx, Confidence: conf, Method: method})
	c.consumedA[aIdx] = true
	c.consumedB[bIdx] = true
}

// exactStage pairs listings sharing the full (brand, title-core, size
// bucket) key.
func (c *cascade) exactStage() int {
	return c.keyedStage(func(k Key) (string, bool) {
		if k.Brand == "" || k.TitleCore == "" {
			return "", false
		}
		return k.exactKey(), true
	}, model.ConfidenceHigh, "exact_brand_title_size")
}

// relaxedStage drops the size component: the two sides may legitimately
// differ in pack size and still be the same product.
func (c *cascade) relaxedStage() int {
	return c.keyedStage(func(k Key) (string, bool) {
		if k.Brand == "" || k.TitleCore == "" {
			return "", false
		}
		return k.relaxedKey(), true
	}, model.ConfidenceMedium, "brand_title_different_size")
}

func (c *cascade) keyedStage(keyFn func(Key) (string, bool), conf model.Confidence, method string) int {
	index := make(map[string][]int)
	for idx := range c.b {
		if c.consumedB[idx] {
			continue
		}
		if key, ok := keyFn(c.bKeys[idx]); ok {
			index[key] = append(index[key], idx)
		}
	}

	found := 0
	for aIdx := range c.a {
		if c.consumedA[aIdx] {
			continue
		}
		key, ok := keyFn(c.aKeys[aIdx])
		if !ok {
			continue
		}
		for _, bIdx := range index[key] {
			if c.consumedB[bIdx] {
				continue
			}
			c.claim(aIdx, bIdx, conf, method)
			found++
			break // one claim per source listing
		}
	}
	return found
}

// fuzzyCandidate is one B-side entry in a fuzzy candidate pool.
type fuzzyCandidate struct {
	idx  int
	core string
}

// fuzzyStage scores title similarity within brand-bucketed candidate
// pools. Pool caps and the near-perfect early exit keep the stage
// sub-quadratic in practice.
func (c *cascade) fuzzyStage() int {
	byBrand := make(map[string][]fuzzyCandidate)
	var brandOrder []string
	var noBrand []fuzzyCandidate

	for idx := range c.b {
		if c.consumedB[idx] {
			continue
		}
		k := c.bKeys[idx]
		if k.TitleCore == "" {
			continue
		}
		cand := fuzzyCandidate{idx: idx, core: k.TitleCore}
		if k.Brand != "" {
			if _, seen := byBrand[k.Brand]; !seen {
				brandOrder = append(brandOrder, k.Brand)
			}
			byBrand[k.Brand] = append(byBrand[k.Brand], cand)
		} else {
			noBrand = append(noBrand, cand)
		}
	}

	found := 0
	for aIdx := range c.a {
		if c.consumedA[aIdx] {
			continue
		}
		k := c.aKeys[aIdx]
		if k.TitleCore == "" {
			continue
		}

		var pool []fuzzyCandidate
		if k.Brand != "" {
			pool = byBrand[k.Brand]
			// Top up with a bounded slice of brandless candidates when
			// the brand bucket is thin.
			if len(pool) < c.cfg.BrandPoolMin {
				pool = append(pool[:len(pool):len(pool)], capPool(noBrand, c.cfg.BrandlessPool)...)
			}
		} else {
			pool = append(pool, noBrand...)
			for _, brand := range brandOrder {
				pool = append(pool, byBrand[brand]...)
			}
			pool = capPool(pool, c.cfg.GlobalPool)
		}

		bestIdx, bestScore := -1, 0.0
		for _, cand := range pool {
			if c.consumedB[cand.idx] {
				continue
			}
			if lengthsIncomparable(k.TitleCore, cand.core) {
				continue
			}
			score := similarity(k.TitleCore, cand.core)
			if score >= c.cfg.FuzzyThreshold && score > bestScore {
				bestScore = score
				bestIdx = cand.idx
				if score >= c.cfg.EarlyExitScore {
					break
				}
			}
		}

		if bestIdx >= 0 {
			c.claim(aIdx, bestIdx, model.ConfidenceLow, fmt.Sprintf("fuzzy_match_%.2f", bestScore))
			found++
		}
	}
	return found
}

// categoryStage matches leftovers that share an originating search term,
// blending title similarity with a binary brand-agreement signal. A
// missing brand on either side counts as agreement.
func (c *cascade) categoryStage() int {
	bByTerm := make(map[string][]int)
	for idx := range c.b {
		if c.consumedB[idx] {
			continue
		}
		term := strings.ToLower(c.b[idx].SearchQuery)
		if term == "" || c.bKeys[idx].TitleCore == "" {
			continue
		}
		bByTerm[term] = append(bByTerm[term], idx)
	}

	found := 0
	for aIdx := range c.a {
		if c.consumedA[aIdx] {
			continue
		}
		k := c.aKeys[aIdx]
		term := strings.ToLower(c.a[aIdx].SearchQuery)
		if term == "" || k.TitleCore == "" {
			continue
		}

		bestIdx, bestScore := -1, 0.0
		for _, bIdx := range bByTerm[term] {
			if c.consumedB[bIdx] {
				continue
			}
			bk := c.bKeys[bIdx]

			brandAgree := 0.0
			if k.Brand == "" || bk.Brand == "" || k.Brand == bk.Brand {
				brandAgree = 1.0
			}
			score := similarity(k.TitleCore, bk.TitleCore)*c.cfg.TitleWeight + brandAgree*c.cfg.BrandWeight
			if score > c.cfg.CategoryThreshold && score > bestScore {
				bestScore = score
				bestIdx = bIdx
			}
		}

		if bestIdx >= 0 {
			c.claim(aIdx, bestIdx, model.ConfidenceLow, fmt.Sprintf("category_match_%.2f", bestScore))
			found++
		}
	}
	return found
}

// lengthsIncomparable is the cheap pre-filter: titles whose lengths
// differ by more than half the longer title cannot clear the similarity
// threshold.
func lengthsIncomparable(a, b string) bool {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > float64(longer)*0.5
}

// similarity is the normalized string similarity in [0, 1].
func similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}

func capPool(pool []fuzzyCandidate, limit int) []fuzzyCandidate {
	if limit > 0 && len(pool) > limit {
		return pool[:limit]
	}
	return pool
}
