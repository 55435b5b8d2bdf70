package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pricepair/catalog-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS price_history (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	scraped_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	store          TEXT NOT NULL,
	product_id     TEXT,
	article_number TEXT,
	title          TEXT,
	brand          TEXT,
	price          REAL,
	review_count   INTEGER,
	avg_rating     REAL,
	availability   TEXT,
	image_url      TEXT,
	search_query   TEXT
);

CREATE INDEX IF NOT EXISTS idx_price_history_store ON price_history(store);
CREATE INDEX IF NOT EXISTS idx_price_history_product_id ON price_history(product_id);
CREATE INDEX IF NOT EXISTS idx_price_history_run_id ON price_history(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ImportSnapshot(ctx context.Context, sourceID string, listings []model.Listing) (*ImportResult, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (
			id, run_id, scraped_at, store, product_id, article_number,
			title, brand, price, review_count, avg_rating, availability,
			image_url, search_query
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	inserted := 0
	for i := range listings {
		l := &listings[i]
		var price any
		if v, ok := l.NumericPrice(); ok {
			price = v
		}
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, now, sourceID,
			l.LocalID(), l.ArticleRef(),
			l.DisplayTitle(), l.Brand, price,
			intOrNil(l.ReviewCount), l.AvgRating.Float(),
			l.Inventory(), l.ImageURL, l.SearchQuery,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert listing %d", i)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit import")
	}
	return &ImportResult{RunID: runID, Inserted: inserted}, nil
}

func (s *SQLiteStore) CountSnapshots(ctx context.Context, sourceID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_history WHERE store = ?`, sourceID,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count snapshots %s", sourceID)
	}
	return n, nil
}

func intOrNil(n model.Number) any {
	if !n.Valid {
		return nil
	}
	return int64(n.Value)
}
