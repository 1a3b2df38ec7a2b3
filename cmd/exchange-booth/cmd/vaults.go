package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/exchange-booth/pkg/app"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/database/query"
)

const (
	defaultVaultsPageSize = 50
)

var vaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "List indexed vaults",
	Long: `List the vaults saved to the postgres vault store by the sync command, optionally
restricted to those administered by --admin. Results are paged; pass the printed
cursor back with --cursor to fetch the next page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := listOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		config, err := app.LoadConfig()
		if err != nil {
			return err
		}

		decoded, err := decodeSyncConfig(config.AppConfig)
		if err != nil {
			return err
		}

		dbConfig := decoded.pgConfig()
		if dbConfig == nil {
			return errors.New("no vault store configured: set app.database.host")
		}

		store, err := data.NewVaultStore(cmd.Context(), dbConfig)
		if err != nil {
			return err
		}

		return listVaults(cmd.Context(), store, opts, cmd.OutOrStdout())
	},
}

type listOptions struct {
	admin     string
	cursor    query.Cursor
	limit     uint64
	direction query.Ordering
}

func listOptionsFromFlags(cmd *cobra.Command) (*listOptions, error) {
	opts := &listOptions{}

	admin, err := cmd.Flags().GetString("admin")
	if err != nil {
		return nil, err
	}
	if len(admin) > 0 {
		account, err := common.NewAccountFromPublicKeyString(admin)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --admin")
		}
		opts.admin = account.PublicKey().ToBase58()
	}

	cursor, err := cmd.Flags().GetString("cursor")
	if err != nil {
		return nil, err
	}
	opts.cursor, err = query.CursorFromBase58(cursor)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --cursor")
	}

	opts.limit, err = cmd.Flags().GetUint64("limit")
	if err != nil {
		return nil, err
	}
	if opts.limit == 0 {
		return nil, errors.New("--limit must be positive")
	}

	order, err := cmd.Flags().GetString("order")
	if err != nil {
		return nil, err
	}
	opts.direction, err = query.ToOrdering(order)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --order")
	}

	return opts, nil
}

func listVaults(ctx context.Context, store vault.Store, opts *listOptions, out io.Writer) error {
	var records []*vault.Record
	var err error
	if len(opts.admin) > 0 {
		records, err = store.GetAllByAdmin(ctx, opts.admin, opts.cursor, opts.limit, opts.direction)
	} else {
		records, err = store.GetAll(ctx, opts.cursor, opts.limit, opts.direction)
	}

	if err == vault.ErrVaultNotFound {
		fmt.Fprintln(out, "No vaults")
		return nil
	} else if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Fprintf(out, "%s mint=%s admin=%s lamports=%d slot=%d\n", record.Address, record.Mint, record.Admin, record.Lamports, record.Slot)
	}

	if uint64(len(records)) == opts.limit {
		fmt.Fprintf(out, "Next cursor: %s\n", query.ToCursor(records[len(records)-1].Id).ToBase58())
	}
	return nil
}

func init() {
	vaultsCmd.Flags().String("admin", "", "only list vaults administered by this address")
	vaultsCmd.Flags().String("cursor", "", "cursor printed by a previous page")
	vaultsCmd.Flags().Uint64("limit", defaultVaultsPageSize, "page size")
	vaultsCmd.Flags().String("order", query.Ascending.String(), "asc or desc")
	rootCmd.AddCommand(vaultsCmd)
}
