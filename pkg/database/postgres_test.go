package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresFromDB(db), mock
}

func TestTransaction_Commit(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM refresh_tokens").WithArgs("old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs("new").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := pg.Transaction(context.Background(), func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token = $1", "old"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO refresh_tokens (token) VALUES ($1)", "new")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_RollbackOnError(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO migrations").
		WillReturnError(&pq.Error{Code: CodeUniqueViolation, Message: "duplicate key"})
	mock.ExpectRollback()

	err := pg.Transaction(context.Background(), func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES ($1)", "x")
		return err
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniqueViolation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_RollbackOnPanic(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = pg.Transaction(context.Background(), func(ctx context.Context, tx DBTX) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_BeginFails(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := pg.Transaction(context.Background(), func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "pool exhausted")
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name     string
		code     pq.ErrorCode
		sentinel error
	}{
		{"unique", CodeUniqueViolation, ErrUniqueViolation},
		{"not null", CodeNotNullViolation, ErrNotNullViolation},
		{"foreign key", CodeForeignKeyViolation, ErrForeignKeyViolation},
		{"invalid text", CodeInvalidTextRepresentation, ErrInvalidTextRepresentation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(&pq.Error{Code: tt.code, Message: "boom", Detail: "detail"})

			var dbErr *Error
			require.True(t, errors.As(err, &dbErr))
			assert.Equal(t, string(tt.code), dbErr.Code)
			assert.Equal(t, "detail", dbErr.Detail)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}

	assert.NoError(t, WrapError(nil))

	plain := errors.New("plain")
	assert.Same(t, plain, WrapError(plain))
}

func TestExecContext_WrapsDriverError(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: CodeNotNullViolation, Message: "null value in column"})

	_, err := pg.ExecContext(context.Background(), "INSERT INTO users (name) VALUES (NULL)")

	assert.True(t, errors.Is(err, ErrNotNullViolation))
	assert.False(t, errors.Is(err, ErrUniqueViolation))
}

func TestPoolStatus(t *testing.T) {
	pg, _ := newMockPostgres(t)

	status := pg.PoolStatus()

	assert.Equal(t, 0, status.Active)
	assert.GreaterOrEqual(t, status.Total, status.Idle)
}
