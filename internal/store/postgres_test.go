package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

func TestPostgresStore_Get_Found(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"1"}]`)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM catalog_snapshots WHERE key = $1;`)).
		WithArgs("artesanato_produtos").
		WillReturnRows(rows)

	v, err := store.Get(context.Background(), "artesanato_produtos")

	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(v))
	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM catalog_snapshots WHERE key = $1;`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	v, err := store.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrKeyNotFound), "Error should be ErrKeyNotFound")
	assert.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set_Upsert(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO catalog_snapshots (key, value)`)).
		WithArgs("artesanato_produtos", `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), "artesanato_produtos", []byte(`[]`))

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set_ProgramLimitExceeded(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO catalog_snapshots (key, value)`)).
		WithArgs("k", "huge").
		WillReturnError(&pq.Error{Code: "54000"})

	err := store.Set(context.Background(), "k", []byte("huge"))

	assert.True(t, errors.Is(err, ErrValueTooLarge), "Error should be ErrValueTooLarge")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set_DriverErrorIsWrapped(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO catalog_snapshots (key, value)`)).
		WithArgs("k", "v").
		WillReturnError(dbErr)

	err := store.Set(context.Background(), "k", []byte("v"))

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS catalog_snapshots`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
