package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Create a mint's vault",
	Long:  `Create and fund the vault of a mint. The payer keypair becomes the vault admin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := accountFlag(cmd, "mint")
		if err != nil {
			return err
		}

		payer, err := loadPayer()
		if err != nil {
			return err
		}

		client, err := newBoothClient(nil)
		if err != nil {
			return err
		}

		accounts, err := client.GetExchangeBoothAccounts(mint)
		if err != nil {
			return err
		}

		sig, err := client.Initialize(cmd.Context(), payer, mint)
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Vault:     %s\n", accounts.Vault.PublicKey().ToBase58())
		fmt.Fprintf(cmd.OutOrStdout(), "Signature: %s\n", sig.ToBase58())
		return nil
	},
}

func init() {
	initializeCmd.Flags().String("mint", "", "token mint address")
	rootCmd.AddCommand(initializeCmd)
}
