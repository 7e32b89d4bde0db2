package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-custody/pkg/code/data/account"
)

type store struct {
	db *sqlx.DB
}

func New(db *sql.DB) account.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements account.Store.Get
func (s *store) Get(ctx context.Context, address string) (*account.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetBatch implements account.Store.GetBatch
func (s *store) GetBatch(ctx context.Context, addresses ...string) (map[string]*account.Record, error) {
	res := make(map[string]*account.Record, len(addresses))
	if len(addresses) == 0 {
		return res, nil
	}

	models, err := dbGetBatch(ctx, s.db, addresses...)
	if err != nil {
		return nil, err
	}

	for _, model := range models {
		res[model.Address] = fromModel(model)
	}
	return res, nil
}

// Commit implements account.Store.Commit
func (s *store) Commit(ctx context.Context, upserts []*account.Record, deletes []string) error {
	models := make([]*model, len(upserts))
	for i, record := range upserts {
		model, err := toModel(record)
		if err != nil {
			return account.ErrInvalidAccount
		}
		models[i] = model
	}

	return dbCommit(ctx, s.db, models, deletes)
}

// Count implements account.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
