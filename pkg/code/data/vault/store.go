package vault

import (
	"context"

	"github.com/code-payments/exchange-booth/pkg/database/query"
)

type Store interface {
	// Count returns the total count of vaults.
	Count(ctx context.Context) (uint64, error)

	// Save creates or updates the record in the store.
	//
	// Returns ErrStaleVaultState if the stored record was observed at a
	// later slot.
	Save(ctx context.Context, record *Record) error

	// GetByAddress finds the record for a given vault address.
	//
	// Returns ErrVaultNotFound if no record is found.
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetByMint finds the record for a mint's vault under a program.
	//
	// Returns ErrVaultNotFound if no record is found.
	GetByMint(ctx context.Context, programId, mint string) (*Record, error)

	// GetAllByAdmin returns all records administered by admin.
	//
	// Returns ErrVaultNotFound if no records are found.
	GetAllByAdmin(ctx context.Context, admin string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAll returns a page of all records.
	//
	// Returns ErrVaultNotFound if no records are found.
	GetAll(ctx context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)
}
