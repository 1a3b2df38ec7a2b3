package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/code-payments/exchange-booth/pkg/code/common"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show an account's lamport balance",
	Long:  `Show the lamport balance of --account, or of the payer keypair when unset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := accountOrPayer(cmd)
		if err != nil {
			return err
		}

		client, err := newBoothClient(nil)
		if err != nil {
			return err
		}

		balance, err := client.GetBalance(cmd.Context(), account)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account:  %s\n", account.PublicKey().ToBase58())
		fmt.Fprintf(cmd.OutOrStdout(), "Lamports: %d\n", balance)
		return nil
	},
}

var airdropCmd = &cobra.Command{
	Use:   "airdrop",
	Short: "Request lamports from the cluster faucet",
	Long:  `Request an airdrop to --account, or to the payer keypair when unset. Only devnet, testnet and local clusters have a faucet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := accountOrPayer(cmd)
		if err != nil {
			return err
		}

		lamports, err := cmd.Flags().GetUint64("lamports")
		if err != nil {
			return err
		}

		client, err := newBoothClient(nil)
		if err != nil {
			return err
		}

		sig, err := client.RequestAirdrop(cmd.Context(), account, lamports)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signature: %s\n", sig.ToBase58())
		return nil
	},
}

func accountOrPayer(cmd *cobra.Command) (*common.Account, error) {
	value, err := cmd.Flags().GetString("account")
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return loadPayer()
	}
	return accountFlag(cmd, "account")
}

func init() {
	balanceCmd.Flags().String("account", "", "account address")
	rootCmd.AddCommand(balanceCmd)

	airdropCmd.Flags().String("account", "", "account address")
	airdropCmd.Flags().Uint64("lamports", 1_000_000_000, "lamports to request")
	rootCmd.AddCommand(airdropCmd)
}
