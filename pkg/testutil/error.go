package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
)

// AssertInstructionError verifies that the provided error is a transaction
// error raised by the instruction at index, carrying the expected cause.
func AssertInstructionError(t *testing.T, err error, index int, expected error) {
	require.Error(t, err)

	var txnErr *solana.TransactionError
	require.True(t, errors.As(err, &txnErr), "not a transaction error: %v", err)
	require.NotNil(t, txnErr.InstructionError(), "not an instruction error: %v", err)

	assert.Equal(t, index, txnErr.InstructionError().Index)
	assert.True(t, errors.Is(err, expected), "expected %v, got %v", expected, err)
}

// AssertTransactionError verifies that the provided error is a transaction
// level failure with the given key.
func AssertTransactionError(t *testing.T, err error, expected solana.TransactionErrorKey) {
	require.Error(t, err)

	var txnErr *solana.TransactionError
	require.True(t, errors.As(err, &txnErr), "not a transaction error: %v", err)
	assert.Equal(t, expected, txnErr.ErrorKey())
}
