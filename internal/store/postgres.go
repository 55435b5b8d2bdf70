package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pricepair/catalog-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS price_history (
	id             UUID PRIMARY KEY,
	run_id         UUID NOT NULL,
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	store          TEXT NOT NULL,
	product_id     TEXT,
	article_number TEXT,
	title          TEXT,
	brand          TEXT,
	price          DOUBLE PRECISION,
	review_count   BIGINT,
	avg_rating     DOUBLE PRECISION,
	availability   TEXT,
	image_url      TEXT,
	search_query   TEXT
);

CREATE INDEX IF NOT EXISTS idx_price_history_store ON price_history(store);
CREATE INDEX IF NOT EXISTS idx_price_history_product_id ON price_history(product_id);
CREATE INDEX IF NOT EXISTS idx_price_history_run_id ON price_history(run_id);
`

const postgresInsert = `
INSERT INTO price_history (
	id, run_id, scraped_at, store, product_id, article_number,
	title, brand, price, review_count, avg_rating, availability,
	image_url, search_query
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ImportSnapshot(ctx context.Context, sourceID string, listings []model.Listing) (*ImportResult, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for i := range listings {
		l := &listings[i]
		var price any
		if v, ok := l.NumericPrice(); ok {
			price = v
		}
		batch.Queue(postgresInsert,
			uuid.New().String(), runID, now, sourceID,
			l.LocalID(), l.ArticleRef(),
			l.DisplayTitle(), l.Brand, price,
			intOrNil(l.ReviewCount), l.AvgRating.Float(),
			l.Inventory(), l.ImageURL, l.SearchQuery,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, eris.Wrapf(err, "postgres: insert listing %d", i)
		}
	}
	if err := results.Close(); err != nil {
		return nil, eris.Wrap(err, "postgres: close batch")
	}
	return &ImportResult{RunID: runID, Inserted: batch.Len()}, nil
}

func (s *PostgresStore) CountSnapshots(ctx context.Context, sourceID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price_history WHERE store = $1`, sourceID,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: count snapshots %s", sourceID)
	}
	return n, nil
}
