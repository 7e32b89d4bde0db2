package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/code-payments/code-custody/pkg/code/data/account/tests"
)

func TestAccountLevelDBStore(t *testing.T) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	defer db.Close()

	testStore := New(db, false)
	teardown := func() {
		require.NoError(t, testStore.(*store).reset())
	}
	tests.RunTests(t, testStore, teardown)
}
