package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresBackend) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresBackend(db)
}

func TestPostgresBackend_Get(t *testing.T) {
	db, mock, backend := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT payload FROM entity_collections`).
		WithArgs("shethrive_goals_v3").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[{"id":"g1"}]`)))

	raw, err := backend.Get(context.Background(), "shethrive_goals_v3")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"g1"}]`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_GetMissing(t *testing.T) {
	db, mock, backend := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT payload FROM entity_collections`).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	_, err := backend.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_UpdateLocksReadsAndUpserts(t *testing.T) {
	db, mock, backend := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	// keys are locked in sorted order
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT payload FROM entity_collections`).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[1]`)))
	mock.ExpectExec(`INSERT INTO entity_collections`).
		WithArgs("b", `[1,2]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := backend.Update(context.Background(), []string{"b", "a"}, func(txn Txn) error {
		raw, err := txn.Get("b")
		require.NoError(t, err)
		assert.Equal(t, `[1]`, string(raw))
		return txn.Set("b", []byte(`[1,2]`))
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_UpdateRollsBackOnError(t *testing.T) {
	db, mock, backend := setupMockDB(t)
	defer db.Close()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := backend.Update(context.Background(), []string{"a"}, func(txn Txn) error {
		require.NoError(t, txn.Set("a", []byte(`[]`)))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_Migrate(t *testing.T) {
	db, mock, backend := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS entity_collections`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, backend.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
