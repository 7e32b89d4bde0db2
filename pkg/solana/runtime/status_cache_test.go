package runtime

import (
	"context"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/testutil"
)

func newSignature(i int) solana.Signature {
	var signature solana.Signature
	h := sha256.Sum256([]byte(fmt.Sprintf("signature-%d", i)))
	copy(signature[:], h[:])
	return signature
}

func TestStatusCache(t *testing.T) {
	ctx := context.Background()

	cache, err := newStatusCache(16)
	require.NoError(t, err)

	signature := newSignature(0)
	hash := sha256.Sum256([]byte("message"))
	other := sha256.Sum256([]byte("other message"))

	assert.NoError(t, cache.check(ctx, signature, hash[:]))

	cache.add(ctx, signature, hash[:])
	testutil.AssertTransactionError(t, cache.check(ctx, signature, hash[:]), solana.TransactionErrorAlreadyProcessed)
	testutil.AssertTransactionError(t, cache.check(ctx, signature, other[:]), solana.TransactionErrorDuplicateSignature)
	assert.NoError(t, cache.check(ctx, newSignature(1), hash[:]))
}

func TestStatusCache_Eviction(t *testing.T) {
	ctx := context.Background()

	cache, err := newStatusCache(4)
	require.NoError(t, err)

	hash := sha256.Sum256([]byte("message"))
	for i := 0; i < 20; i++ {
		cache.add(ctx, newSignature(i), hash[:])
	}

	// Only the most recent signatures are remembered once the filter is
	// rebuilt.
	assert.NoError(t, cache.check(ctx, newSignature(0), hash[:]))
	for i := 16; i < 20; i++ {
		testutil.AssertTransactionError(t, cache.check(ctx, newSignature(i), hash[:]), solana.TransactionErrorAlreadyProcessed)
	}
	assert.LessOrEqual(t, cache.added, 2*cache.capacity)
}

func TestStatusCache_InvalidCapacity(t *testing.T) {
	_, err := newStatusCache(0)
	assert.Error(t, err)
}
