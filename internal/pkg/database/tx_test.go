package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reward_catalog").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE reward_catalog SET stock = stock - 1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCode(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pq.Error{Code: CodeForeignKeyViolation})
	assert.Equal(t, CodeForeignKeyViolation, PgCode(wrapped))
	assert.Equal(t, "", PgCode(errors.New("plain")))
}

func TestPgConstraint(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: CodeForeignKeyViolation, Constraint: "redemption_requests_reward_id_fkey"})
	assert.Equal(t, "redemption_requests_reward_id_fkey", PgConstraint(err))
	assert.Equal(t, "", PgConstraint(errors.New("plain")))
}
