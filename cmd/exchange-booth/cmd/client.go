package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/exchange-booth/pkg/code/booth"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	vault_memory_client "github.com/code-payments/exchange-booth/pkg/code/data/vault/memory"
	"github.com/code-payments/exchange-booth/pkg/solana"
)

func newBoothClient(vaults vault.Store) (*booth.Client, error) {
	if vaults == nil {
		vaults = vault_memory_client.New()
	}

	return booth.NewClient(
		solana.New(solana.ResolveEndpoint(viper.GetString(rpcConfigKey))),
		vaults,
		booth.WithOverrides(&booth.Overrides{
			ProgramId:  viper.GetString(programIdConfigKey),
			Commitment: viper.GetString(commitmentConfigKey),
		}),
	)
}

func programAccount() (*common.Account, error) {
	program, err := common.NewAccountFromPublicKeyString(viper.GetString(programIdConfigKey))
	if err != nil {
		return nil, errors.Wrap(err, "invalid program id")
	}
	return program, nil
}

func loadPayer() (*common.Account, error) {
	path, err := expandHome(viper.GetString(keypairConfigKey))
	if err != nil {
		return nil, err
	}

	payer, err := common.NewAccountFromKeypairFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payer keypair")
	}
	return payer, nil
}

func accountFlag(cmd *cobra.Command, name string) (*common.Account, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, errors.Errorf("--%s is required", name)
	}

	account, err := common.NewAccountFromPublicKeyString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	return account, nil
}
