package account

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidAccount  = errors.New("invalid account")
)

// Store is the persisted ledger of accounts. Addresses are base58 encoded.
type Store interface {
	// Get finds the account at an address.
	//
	// Returns ErrAccountNotFound if no account exists at the address.
	Get(ctx context.Context, address string) (*Record, error)

	// GetBatch is like Get, but for multiple addresses. Addresses without an
	// account are omitted from the result rather than failing the call.
	GetBatch(ctx context.Context, addresses ...string) (map[string]*Record, error)

	// Commit atomically creates or updates every record in upserts and removes
	// every address in deletes. Either all changes are applied or none are.
	Commit(ctx context.Context, upserts []*Record, deletes []string) error

	// Count returns the total count of accounts.
	Count(ctx context.Context) (uint64, error)
}
