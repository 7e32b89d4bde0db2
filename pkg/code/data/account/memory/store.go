package memory

import (
	"context"
	"sync"

	"github.com/code-payments/code-custody/pkg/code/data/account"
)

type store struct {
	mu      sync.Mutex
	records map[string]*account.Record
}

func New() account.Store {
	return &store{
		records: make(map[string]*account.Record),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*account.Record)
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.records[address]
	if !ok {
		return nil, account.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetBatch implements account.Store.GetBatch
func (s *store) GetBatch(_ context.Context, addresses ...string) (map[string]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make(map[string]*account.Record, len(addresses))
	for _, address := range addresses {
		item, ok := s.records[address]
		if !ok {
			continue
		}

		cloned := item.Clone()
		res[address] = &cloned
	}
	return res, nil
}

// Commit implements account.Store.Commit
func (s *store) Commit(_ context.Context, upserts []*account.Record, deletes []string) error {
	for _, record := range upserts {
		if err := record.Validate(); err != nil {
			return account.ErrInvalidAccount
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range upserts {
		cloned := record.Clone()
		s.records[record.Address] = &cloned
	}
	for _, address := range deletes {
		delete(s.records, address)
	}
	return nil
}

// Count implements account.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}
