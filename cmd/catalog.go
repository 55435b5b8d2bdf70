package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricepair/catalog-cli/internal/catalog"
	"github.com/pricepair/catalog-cli/internal/pipeline"
)

var catalogOut string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Build the full product catalog document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return eris.Wrap(err, "build pipeline")
		}

		res, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run pipeline")
		}

		out := catalogOut
		if out == "" {
			out = cfg.Output.Catalog
		}
		if err := catalog.WriteDocument(out, res.Catalog); err != nil {
			return eris.Wrap(err, "write catalog")
		}

		zap.L().Info("catalog written",
			zap.String("path", out),
			zap.Int("products", res.Stats.Products),
			zap.Int("multi_store", res.Stats.MultiStore),
		)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogOut, "out", "", "catalog output path (default from config)")
	rootCmd.AddCommand(catalogCmd)
}
