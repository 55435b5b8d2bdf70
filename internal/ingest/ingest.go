// Package ingest reads per-source listing files. Input is newline-
// delimited JSON, read fully into memory before matching begins; the
// scraping layer that produced the files is an external collaborator and
// the files are treated as already-consistent, read-once input.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricepair/catalog-cli/internal/model"
)

// maxLineBytes bounds a single listing record; product descriptions can
// run long but never near this.
const maxLineBytes = 4 << 20

// LoadSource reads one source's JSONL file. Malformed lines are skipped
// with a logged warning. A missing file yields an empty source, also
// with a warning: the run proceeds with whatever sources exist and
// simply reports zero cross-source matches.
func LoadSource(path, sourceID string) ([]model.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("ingest: input file missing, source will be empty",
				zap.String("source", sourceID),
				zap.String("path", path),
			)
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	var listings []model.Listing
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var l model.Listing
		if err := json.Unmarshal(line, &l); err != nil {
			skipped++
			zap.L().Warn("ingest: skipping malformed line",
				zap.String("source", sourceID),
				zap.Int("line", lineNum),
				zap.Error(err),
			)
			continue
		}
		l.Source = sourceID
		listings = append(listings, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}

	zap.L().Info("ingest: source loaded",
		zap.String("source", sourceID),
		zap.Int("listings", len(listings)),
		zap.Int("skipped", skipped),
	)
	return listings, nil
}

// LoadPair loads both source files concurrently.
func LoadPair(ctx context.Context, aPath, aID, bPath, bID string) ([]model.Listing, []model.Listing, error) {
	var a, b []model.Listing

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = LoadSource(aPath, aID)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = LoadSource(bPath, bID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
