package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/exchange-booth/pkg/code/data/vault"

	pgutil "github.com/code-payments/exchange-booth/pkg/database/postgres"
	q "github.com/code-payments/exchange-booth/pkg/database/query"
)

const (
	vaultTableName = "exchangebooth__core_vault"

	allFields = `id, address, program_id, mint, bump, admin, lamports, slot, created_at, last_updated_at`

	selectVaults = `SELECT ` + allFields + ` FROM ` + vaultTableName

	// The update only applies when the incoming state was observed at the
	// same or a later slot than the stored state. Otherwise no row is
	// returned.
	upsertVault = `INSERT INTO ` + vaultTableName + `
		(address, program_id, mint, bump, admin, lamports, slot, created_at, last_updated_at)
		VALUES (:address, :program_id, :mint, :bump, :admin, :lamports, :slot, :created_at, :last_updated_at)
		ON CONFLICT (address) DO UPDATE
			SET admin = EXCLUDED.admin, lamports = EXCLUDED.lamports, slot = EXCLUDED.slot, last_updated_at = EXCLUDED.last_updated_at
			WHERE ` + vaultTableName + `.slot <= EXCLUDED.slot
		RETURNING ` + allFields
)

type vaultModel struct {
	Id            sql.NullInt64 `db:"id"`
	Address       string        `db:"address"`
	ProgramId     string        `db:"program_id"`
	Mint          string        `db:"mint"`
	Bump          uint8         `db:"bump"`
	Admin         string        `db:"admin"`
	Lamports      uint64        `db:"lamports"`
	Slot          uint64        `db:"slot"`
	CreatedAt     time.Time     `db:"created_at"`
	LastUpdatedAt time.Time     `db:"last_updated_at"`
}

func toVaultModel(record *vault.Record) (*vaultModel, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &vaultModel{
		Address:       record.Address,
		ProgramId:     record.ProgramId,
		Mint:          record.Mint,
		Bump:          record.Bump,
		Admin:         record.Admin,
		Lamports:      record.Lamports,
		Slot:          record.Slot,
		CreatedAt:     createdAt.UTC(),
		LastUpdatedAt: time.Now().UTC(),
	}, nil
}

func (m *vaultModel) toRecord() *vault.Record {
	return &vault.Record{
		Id:            uint64(m.Id.Int64),
		Address:       m.Address,
		ProgramId:     m.ProgramId,
		Mint:          m.Mint,
		Bump:          m.Bump,
		Admin:         m.Admin,
		Lamports:      m.Lamports,
		Slot:          m.Slot,
		CreatedAt:     m.CreatedAt.UTC(),
		LastUpdatedAt: m.LastUpdatedAt.UTC(),
	}
}

func (m *vaultModel) dbSave(ctx context.Context, tx *sqlx.Tx) error {
	query, args, err := tx.BindNamed(upsertVault, m)
	if err != nil {
		return err
	}

	err = tx.QueryRowxContext(ctx, query, args...).StructScan(m)
	return pgutil.CheckNoRows(err, vault.ErrStaleVaultState)
}

func dbGetCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var count uint64
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+vaultTableName)
	return count, err
}

func dbGetOne(ctx context.Context, db *sqlx.DB, where string, args ...interface{}) (*vaultModel, error) {
	res := &vaultModel{}
	err := db.GetContext(ctx, res, selectVaults+` WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return res, nil
}

// dbGetPage selects a page of vaults matching where, which must be wrapped
// in parentheses.
func dbGetPage(ctx context.Context, db *sqlx.DB, where string, args []interface{}, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*vaultModel, error) {
	query, args := q.PaginateQuery(selectVaults+` WHERE `+where, args, cursor, limit, direction)

	var res []*vaultModel
	if err := db.SelectContext(ctx, &res, query, args...); err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}
