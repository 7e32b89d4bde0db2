package leveldb

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/code-payments/code-custody/pkg/code/data/account"
)

var keyPrefix = []byte("account/")

//	[32]u8   owner
//	u64      lamports
//	u8       executable
//	u64      slot
//	i64      last updated at (unix nanos)
//	[]u8     data
const headerSize = 32 + 8 + 1 + 8 + 8

type store struct {
	db   *leveldb.DB
	sync bool
}

// New returns a Store backed by db. When sync is set every commit is flushed
// to disk before returning.
func New(db *leveldb.DB, sync bool) account.Store {
	return &store{
		db:   db,
		sync: sync,
	}
}

// Open opens (or creates) a leveldb database at path.
func Open(path string, sync bool) (account.Store, func() error, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open leveldb at %s", path)
	}
	return New(db, sync), db.Close, nil
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	val, err := s.db.Get(toKey(address), nil)
	if err == leveldb.ErrNotFound {
		return nil, account.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}

	return fromValue(address, val)
}

// GetBatch implements account.Store.GetBatch
func (s *store) GetBatch(_ context.Context, addresses ...string) (map[string]*account.Record, error) {
	snapshot, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snapshot.Release()

	res := make(map[string]*account.Record, len(addresses))
	for _, address := range addresses {
		val, err := snapshot.Get(toKey(address), nil)
		if err == leveldb.ErrNotFound {
			continue
		} else if err != nil {
			return nil, err
		}

		record, err := fromValue(address, val)
		if err != nil {
			return nil, err
		}
		res[address] = record
	}
	return res, nil
}

// Commit implements account.Store.Commit
func (s *store) Commit(_ context.Context, upserts []*account.Record, deletes []string) error {
	batch := new(leveldb.Batch)
	for _, record := range upserts {
		val, err := toValue(record)
		if err != nil {
			return account.ErrInvalidAccount
		}
		batch.Put(toKey(record.Address), val)
	}
	for _, address := range deletes {
		batch.Delete(toKey(address))
	}

	return s.db.Write(batch, &opt.WriteOptions{Sync: s.sync})
}

// Count implements account.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	it := s.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer it.Release()

	var count uint64
	for it.Next() {
		count++
	}
	return count, it.Error()
}

func (s *store) reset() error {
	it := s.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

func toKey(address string) []byte {
	return append(append([]byte(nil), keyPrefix...), address...)
}

func toValue(record *account.Record) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return nil, err
	}

	lastUpdatedAt := record.LastUpdatedAt
	if lastUpdatedAt.IsZero() {
		lastUpdatedAt = time.Now()
	}

	val := make([]byte, headerSize+len(record.Data))
	copy(val, owner)
	binary.LittleEndian.PutUint64(val[32:], record.Lamports)
	if record.Executable {
		val[40] = 1
	}
	binary.LittleEndian.PutUint64(val[41:], record.Slot)
	binary.LittleEndian.PutUint64(val[49:], uint64(lastUpdatedAt.UnixNano()))
	copy(val[headerSize:], record.Data)

	return val, nil
}

func fromValue(address string, val []byte) (*account.Record, error) {
	if len(val) < headerSize {
		return nil, errors.Errorf("invalid account value size: %d", len(val))
	}

	record := &account.Record{
		Address:       address,
		Owner:         base58.Encode(val[:32]),
		Lamports:      binary.LittleEndian.Uint64(val[32:]),
		Executable:    val[40] == 1,
		Slot:          binary.LittleEndian.Uint64(val[41:]),
		LastUpdatedAt: time.Unix(0, int64(binary.LittleEndian.Uint64(val[49:]))),
	}
	if len(val) > headerSize {
		record.Data = append([]byte(nil), val[headerSize:]...)
	}

	return record, nil
}
