package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestUpdateSet(t *testing.T) {
	set, args := updateSet(repository.Fields{"name": "x", "genre": "pop"}, true)
	assert.Equal(t, "genre = $1, name = $2, updated_at = now()", set)
	assert.Equal(t, []any{"pop", "x"}, args)

	set, args = updateSet(repository.Fields{"title": "t"}, false)
	assert.Equal(t, "title = $1", set)
	assert.Equal(t, []any{"t"}, args)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM works").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := withTx(ctx, db, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, "DELETE FROM works")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := withTx(ctx, db, func(*sqlx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExecOne_NoRows(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM works").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err := execOne(context.Background(), db, "DELETE FROM works WHERE id = $1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	err := duplicate(pgErr)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.ErrorIs(t, err, pgErr)

	assert.NotErrorIs(t, duplicate(&pgconn.PgError{Code: "23503"}), repository.ErrDuplicate)
	other := errors.New("other")
	assert.Equal(t, other, duplicate(other))
	assert.NoError(t, duplicate(nil))
}
