package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-custody/pkg/code/data/account"
	pgutil "github.com/code-payments/code-custody/pkg/database/postgres"
)

const (
	tableName = "custody__core_account"

	allColumns = `id, address, owner, lamports, data, executable, slot, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`

	Owner      string `db:"owner"`
	Lamports   uint64 `db:"lamports"`
	Data       []byte `db:"data"`
	Executable bool   `db:"executable"`

	Slot          uint64    `db:"slot"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *account.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address: obj.Address,

		Owner:      obj.Owner,
		Lamports:   obj.Lamports,
		Data:       data,
		Executable: obj.Executable,

		Slot:          obj.Slot,
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}, nil
}

func fromModel(obj *model) *account.Record {
	var data []byte
	if len(obj.Data) > 0 {
		data = obj.Data
	}

	return &account.Record{
		Address: obj.Address,

		Owner:      obj.Owner,
		Lamports:   obj.Lamports,
		Data:       data,
		Executable: obj.Executable,

		Slot:          obj.Slot,
		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbUpsert(ctx context.Context, tx *sqlx.Tx) error {
	if m.LastUpdatedAt.IsZero() {
		m.LastUpdatedAt = time.Now().UTC()
	}

	query := `INSERT INTO ` + tableName + `
		(address, owner, lamports, data, executable, slot, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)

		ON CONFLICT (address)
		DO UPDATE
			SET owner = $2, lamports = $3, data = $4, executable = $5, slot = $6, last_updated_at = $7
			WHERE ` + tableName + `.address = $1

		RETURNING ` + allColumns

	return tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.Executable,
		m.Slot,
		m.LastUpdatedAt,
	).StructScan(m)
}

func dbCommit(ctx context.Context, db *sqlx.DB, upserts []*model, deletes []string) error {
	return pgutil.ExecuteRetryable(func() error {
		return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
			for _, m := range upserts {
				if err := m.dbUpsert(ctx, tx); err != nil {
					return err
				}
			}

			if len(deletes) == 0 {
				return nil
			}

			query, args, err := sqlx.In(`DELETE FROM `+tableName+` WHERE address IN (?)`, deletes)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
			return err
		})
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.QueryRowxContext(ctx, query, address).StructScan(res)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, account.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetBatch(ctx context.Context, db *sqlx.DB, addresses ...string) ([]*model, error) {
	res := []*model{}

	individualFilters := make([]string, len(addresses))
	args := make([]interface{}, len(addresses))
	for i, address := range addresses {
		individualFilters[i] = fmt.Sprintf("$%d", i+1)
		args[i] = address
	}

	query := fmt.Sprintf(
		`SELECT `+allColumns+` FROM `+tableName+`
		WHERE address IN (%s)`,
		strings.Join(individualFilters, ", "),
	)

	err := db.SelectContext(ctx, &res, query, args...)
	if err != nil && !pgutil.IsNoRows(err) {
		return nil, err
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
