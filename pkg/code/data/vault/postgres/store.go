package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	pgutil "github.com/code-payments/exchange-booth/pkg/database/postgres"
	"github.com/code-payments/exchange-booth/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a vault.Store backed by postgres.
func New(db *sql.DB) vault.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbGetCount(ctx, s.db)
}

// Save upserts the record in a serializable transaction, retrying on
// serialization failures.
func (s *store) Save(ctx context.Context, record *vault.Record) error {
	model, err := toVaultModel(record)
	if err != nil {
		return err
	}

	err = pgutil.ExecuteRetryable(func() error {
		return pgutil.ExecuteInTx(ctx, s.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
			return model.dbSave(ctx, tx)
		})
	})
	if err != nil {
		return err
	}

	model.toRecord().CopyTo(record)
	return nil
}

func (s *store) GetByAddress(ctx context.Context, address string) (*vault.Record, error) {
	model, err := dbGetOne(ctx, s.db, `address = $1`, address)
	if err != nil {
		return nil, err
	}
	return model.toRecord(), nil
}

func (s *store) GetByMint(ctx context.Context, programId, mint string) (*vault.Record, error) {
	model, err := dbGetOne(ctx, s.db, `program_id = $1 AND mint = $2`, programId, mint)
	if err != nil {
		return nil, err
	}
	return model.toRecord(), nil
}

func (s *store) GetAllByAdmin(ctx context.Context, admin string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetPage(ctx, s.db, `(admin = $1)`, []interface{}{admin}, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

func (s *store) GetAll(ctx context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	models, err := dbGetPage(ctx, s.db, `(TRUE)`, nil, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

func toRecords(models []*vaultModel) []*vault.Record {
	records := make([]*vault.Record, len(models))
	for i, model := range models {
		records[i] = model.toRecord()
	}
	return records
}
