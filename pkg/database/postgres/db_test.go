package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExecuteRetryable(t *testing.T) {
	conflict := &pgconn.PgError{Code: pgerrcode.SerializationFailure}

	var calls int
	err := ExecuteRetryable(func() error {
		calls++
		if calls < 3 {
			return errors.Wrap(conflict, "commit")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = ExecuteRetryable(func() error {
		calls++
		return sql.ErrNoRows
	})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = ExecuteRetryable(func() error {
		calls++
		return conflict
	})
	assert.True(t, IsSerializationFailure(err))
	assert.Equal(t, maxSerializationAttempts, calls)
}

func TestCheckNoRows(t *testing.T) {
	notFound := errors.New("not found")

	assert.Equal(t, notFound, CheckNoRows(sql.ErrNoRows, notFound))
	assert.Equal(t, sql.ErrConnDone, CheckNoRows(sql.ErrConnDone, notFound))
	assert.False(t, IsNoRows(nil))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
}
