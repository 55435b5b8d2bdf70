package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricepair/catalog-cli/internal/ingest"
	"github.com/pricepair/catalog-cli/internal/store"
)

var (
	importSource string
	importFile   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a scraped listings file into the price-history store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		listings, err := ingest.LoadSource(importFile, importSource)
		if err != nil {
			return eris.Wrap(err, "load listings")
		}
		if len(listings) == 0 {
			return eris.Errorf("no listings found in %s", importFile)
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		res, err := st.ImportSnapshot(ctx, importSource, listings)
		if err != nil {
			return eris.Wrap(err, "import snapshot")
		}

		total, err := st.CountSnapshots(ctx, importSource)
		if err != nil {
			return eris.Wrap(err, "count snapshots")
		}

		zap.L().Info("import complete",
			zap.String("run_id", res.RunID),
			zap.String("source", importSource),
			zap.Int("inserted", res.Inserted),
			zap.Int64("total_rows", total),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "source id to tag rows with (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "path to JSONL listings file (required)")
	_ = importCmd.MarkFlagRequired("source")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
