package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepair/catalog-cli/internal/model"
)

func TestPostgresMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS price_history`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportSnapshot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	listings := []model.Listing{
		{Brand: "Neilson", Title: "Chocolate Milk 473 ml", Price: "$2.49", ProductID: "w1"},
		{Title: "Mystery Item", ProductID: "w2"},
	}

	batch := mock.ExpectBatch()
	for range listings {
		batch.ExpectExec(`INSERT INTO price_history`).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "walmart",
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	res, err := st.ImportSnapshot(context.Background(), "walmart", listings)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountSnapshots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM price_history WHERE store = \$1`).
		WithArgs("walmart").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := st.CountSnapshots(context.Background(), "walmart")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
