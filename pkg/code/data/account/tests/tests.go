package tests

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/code/data/account"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRoundTrip,
		testBatchedGet,
		testCommitIsAtomic,
		testDeletes,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s account.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		expected := &account.Record{
			Address:       newAddress(t),
			Owner:         newAddress(t),
			Lamports:      1_733_040,
			Data:          []byte{1, 2, 3, 4},
			Executable:    false,
			Slot:          12,
			LastUpdatedAt: time.Now(),
		}
		cloned := expected.Clone()

		_, err := s.Get(ctx, expected.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, s.Commit(ctx, []*account.Record{expected}, nil))

		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		expected.Lamports = 890_880
		expected.Data = nil
		expected.Owner = newAddress(t)
		expected.Slot = 13
		cloned = expected.Clone()

		require.NoError(t, s.Commit(ctx, []*account.Record{expected}, nil))

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testBatchedGet(t *testing.T, s account.Store) {
	t.Run("testBatchedGet", func(t *testing.T) {
		ctx := context.Background()

		var records []*account.Record
		for i := 0; i < 5; i++ {
			records = append(records, &account.Record{
				Address:       newAddress(t),
				Owner:         newAddress(t),
				Lamports:      uint64(i + 1),
				Data:          []byte{byte(i)},
				Executable:    i%2 == 0,
				Slot:          uint64(i),
				LastUpdatedAt: time.Now(),
			})
		}
		require.NoError(t, s.Commit(ctx, records, nil))

		missing := newAddress(t)
		actual, err := s.GetBatch(ctx, records[0].Address, records[3].Address, missing)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, records[0], actual[records[0].Address])
		assertEquivalentRecords(t, records[3], actual[records[3].Address])

		_, ok := actual[missing]
		assert.False(t, ok)

		actual, err = s.GetBatch(ctx)
		require.NoError(t, err)
		assert.Empty(t, actual)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})
}

func testCommitIsAtomic(t *testing.T, s account.Store) {
	t.Run("testCommitIsAtomic", func(t *testing.T) {
		ctx := context.Background()

		existing := &account.Record{
			Address:       newAddress(t),
			Owner:         newAddress(t),
			Lamports:      10,
			LastUpdatedAt: time.Now(),
		}
		require.NoError(t, s.Commit(ctx, []*account.Record{existing}, nil))

		valid := &account.Record{
			Address:       newAddress(t),
			Owner:         newAddress(t),
			Lamports:      10,
			LastUpdatedAt: time.Now(),
		}
		invalid := &account.Record{
			Address:       "invalid",
			Owner:         newAddress(t),
			Lamports:      10,
			LastUpdatedAt: time.Now(),
		}
		assert.Equal(t, account.ErrInvalidAccount, s.Commit(ctx, []*account.Record{valid, invalid}, []string{existing.Address}))

		_, err := s.Get(ctx, valid.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, existing, actual)

		// Zero balance accounts are never persisted, they're deleted.
		empty := existing.Clone()
		empty.Lamports = 0
		assert.Equal(t, account.ErrInvalidAccount, s.Commit(ctx, []*account.Record{&empty}, nil))
	})
}

func testDeletes(t *testing.T, s account.Store) {
	t.Run("testDeletes", func(t *testing.T) {
		ctx := context.Background()

		closed := &account.Record{
			Address:       newAddress(t),
			Owner:         newAddress(t),
			Lamports:      1_733_040,
			Data:          make([]byte, 121),
			LastUpdatedAt: time.Now(),
		}
		receiver := &account.Record{
			Address:       newAddress(t),
			Owner:         newAddress(t),
			Lamports:      5,
			LastUpdatedAt: time.Now(),
		}
		require.NoError(t, s.Commit(ctx, []*account.Record{closed, receiver}, nil))

		receiver.Lamports += closed.Lamports
		require.NoError(t, s.Commit(ctx, []*account.Record{receiver}, []string{closed.Address}))

		_, err := s.Get(ctx, closed.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, receiver.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1_733_045, actual.Lamports)

		// Deleting an address without an account is a no-op.
		require.NoError(t, s.Commit(ctx, nil, []string{newAddress(t)}))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func newAddress(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *account.Record) {
	require.NotNil(t, obj2)

	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, len(obj1.Data), len(obj2.Data))
	if len(obj1.Data) > 0 {
		assert.Equal(t, obj1.Data, obj2.Data)
	}
	assert.Equal(t, obj1.Executable, obj2.Executable)
	assert.Equal(t, obj1.Slot, obj2.Slot)
	assert.Equal(t, obj1.LastUpdatedAt.Unix(), obj2.LastUpdatedAt.Unix())
}
