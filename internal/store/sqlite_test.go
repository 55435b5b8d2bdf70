package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepair/catalog-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteImportSnapshot(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	listings := []model.Listing{
		{
			Brand:       "Neilson",
			Title:       "Chocolate Milk 473 ml",
			Price:       "$2.49",
			ProductID:   "w1",
			ReviewCount: model.Number{Value: 12, Valid: true},
			AvgRating:   model.Number{Value: 4.5, Valid: true},
		},
		{
			Title:     "Mystery Item",
			ProductID: "w2",
			Price:     "see store",
		},
	}

	res, err := st.ImportSnapshot(ctx, "walmart", listings)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Inserted)

	n, err := st.CountSnapshots(ctx, "walmart")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = st.CountSnapshots(ctx, "superstore")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestSQLiteImportAppendsRuns(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	listings := []model.Listing{{Title: "Milk", ProductID: "w1", Price: "2.99"}}

	first, err := st.ImportSnapshot(ctx, "walmart", listings)
	require.NoError(t, err)
	second, err := st.ImportSnapshot(ctx, "walmart", listings)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)

	n, err := st.CountSnapshots(ctx, "walmart")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestIntOrNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, intOrNil(model.Number{}))
	assert.Equal(t, int64(12), intOrNil(model.Number{Value: 12.4, Valid: true}))
}
