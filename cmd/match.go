package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricepair/catalog-cli/internal/catalog"
	"github.com/pricepair/catalog-cli/internal/pipeline"
)

var (
	matchInputA string
	matchInputB string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match listings across sources and write paired/unmatched artifacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("match"); err != nil {
			return err
		}
		if matchInputA != "" {
			cfg.Sources.A.Input = matchInputA
		}
		if matchInputB != "" {
			cfg.Sources.B.Input = matchInputB
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return eris.Wrap(err, "build pipeline")
		}

		res, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run pipeline")
		}

		if err := catalog.WriteMatched(cfg.Output.Matched, res.Catalog); err != nil {
			return eris.Wrap(err, "write matched")
		}
		if err := catalog.WriteUnmatched(cfg.Output.Unmatched, res.Unmatched); err != nil {
			return eris.Wrap(err, "write unmatched")
		}

		pipeline.LogStats(res.Stats, cfg.Sources.A.ID, cfg.Sources.B.ID)
		zap.L().Info("artifacts written",
			zap.String("matched", cfg.Output.Matched),
			zap.String("unmatched", cfg.Output.Unmatched),
		)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchInputA, "input-a", "", "override input file for source A")
	matchCmd.Flags().StringVar(&matchInputB, "input-b", "", "override input file for source B")
	rootCmd.AddCommand(matchCmd)
}
