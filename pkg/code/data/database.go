package data

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	vault_memory_client "github.com/code-payments/exchange-booth/pkg/code/data/vault/memory"
	vault_postgres_client "github.com/code-payments/exchange-booth/pkg/code/data/vault/postgres"
	pg "github.com/code-payments/exchange-booth/pkg/database/postgres"
)

// NewVaultStore returns a postgres backed vault store, or an in memory one
// when dbConfig is nil.
func NewVaultStore(ctx context.Context, dbConfig *pg.Config) (vault.Store, error) {
	log := logrus.StandardLogger().WithField("type", "data/provider")

	if dbConfig == nil {
		log.Debug("using in memory vault store")
		return vault_memory_client.New(), nil
	}

	db, err := pg.Open(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"host":    dbConfig.Host,
		"db_name": dbConfig.DbName,
		"iam":     dbConfig.UseAwsIam,
	}).Debug("using postgres vault store")
	return vault_postgres_client.New(db), nil
}
