package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pricepair/catalog-cli/internal/ingest"
	"github.com/pricepair/catalog-cli/internal/match"
	"github.com/pricepair/catalog-cli/internal/model"
	"github.com/pricepair/catalog-cli/internal/pipeline"
)

var statsSamples int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show matching diagnostics for the configured source pair",
	Long:  "Loads both sources and reports key coverage, brand overlap, and sample normalizations without writing any artifacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return eris.Wrap(err, "build pipeline")
		}

		a, b, err := ingest.LoadPair(ctx,
			cfg.Sources.A.Input, cfg.Sources.A.ID,
			cfg.Sources.B.Input, cfg.Sources.B.ID,
		)
		if err != nil {
			return eris.Wrap(err, "load sources")
		}

		kr := p.Keyer()
		formatKeyCoverage(os.Stdout, cfg.Sources.A.ID, a, kr)
		formatKeyCoverage(os.Stdout, cfg.Sources.B.ID, b, kr)
		formatOverlap(os.Stdout, a, b, kr)
		formatSamples(os.Stdout, a, kr, statsSamples)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsSamples, "samples", 10, "number of sample normalizations to print")
	rootCmd.AddCommand(statsCmd)
}

// formatKeyCoverage reports how many listings produce usable match keys.
func formatKeyCoverage(out io.Writer, sourceID string, listings []model.Listing, kr *match.Keyer) {
	var branded, titled, sized, indexable int
	for i := range listings {
		k := kr.Key(&listings[i])
		if k.Brand != "" {
			branded++
		}
		if k.TitleCore != "" {
			titled++
		}
		if k.SizeOK {
			sized++
		}
		if k.Indexable() {
			indexable++
		}
	}

	fmt.Fprintf(out, "\n%s: %d listings\n", sourceID, len(listings))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tCOUNT\tPCT")
	for _, row := range []struct {
		field string
		n     int
	}{
		{"brand", branded},
		{"title core", titled},
		{"size", sized},
		{"indexable", indexable},
	} {
		pct := 0.0
		if len(listings) > 0 {
			pct = float64(row.n) / float64(len(listings)) * 100
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", row.field, row.n, pct)
	}
	w.Flush()
}

// formatOverlap reports shared brands and exact-key intersections, the
// upper bound on what the keyed stages can match.
func formatOverlap(out io.Writer, a, b []model.Listing, kr *match.Keyer) {
	brandsA := map[string]int{}
	exactA := map[string]bool{}
	for i := range a {
		k := kr.Key(&a[i])
		if k.Brand != "" {
			brandsA[k.Brand]++
		}
		if k.Indexable() {
			exactA[k.Brand+"|"+k.TitleCore+"|"+k.SizeBucket()] = true
		}
	}

	shared := map[string]int{}
	exactHits := 0
	for i := range b {
		k := kr.Key(&b[i])
		if k.Brand != "" && brandsA[k.Brand] > 0 {
			shared[k.Brand]++
		}
		if k.Indexable() && exactA[k.Brand+"|"+k.TitleCore+"|"+k.SizeBucket()] {
			exactHits++
		}
	}

	names := make([]string, 0, len(shared))
	for n := range shared {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if shared[names[i]] != shared[names[j]] {
			return shared[names[i]] > shared[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Fprintf(out, "\nshared brands: %d, exact-key intersections: %d\n", len(shared), exactHits)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRAND\tLISTINGS B")
	for i, n := range names {
		if i >= 20 {
			break
		}
		fmt.Fprintf(w, "%s\t%d\n", n, shared[n])
	}
	w.Flush()
}

// formatSamples prints raw titles next to their derived match keys.
func formatSamples(out io.Writer, listings []model.Listing, kr *match.Keyer, n int) {
	fmt.Fprintf(out, "\nsample normalizations:\n")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tBRAND\tCORE\tSIZE")
	for i := range listings {
		if i >= n {
			break
		}
		k := kr.Key(&listings[i])
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncate(listings[i].DisplayTitle(), 40),
			k.Brand,
			truncate(k.TitleCore, 40),
			k.SizeBucket(),
		)
	}
	w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
