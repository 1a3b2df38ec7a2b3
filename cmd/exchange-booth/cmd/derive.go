package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/code-payments/exchange-booth/pkg/code/common"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a mint's vault address",
	Long:  `Derive the vault address and bump of a mint without contacting the cluster.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := programAccount()
		if err != nil {
			return err
		}

		mint, err := accountFlag(cmd, "mint")
		if err != nil {
			return err
		}

		accounts, err := common.GetExchangeBoothAccounts(program, mint)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Program: %s\n", accounts.Program.PublicKey().ToBase58())
		fmt.Fprintf(cmd.OutOrStdout(), "Mint:    %s\n", accounts.Mint.PublicKey().ToBase58())
		fmt.Fprintf(cmd.OutOrStdout(), "Vault:   %s\n", accounts.Vault.PublicKey().ToBase58())
		fmt.Fprintf(cmd.OutOrStdout(), "Bump:    %d\n", accounts.VaultBump)
		return nil
	},
}

func init() {
	deriveCmd.Flags().String("mint", "", "token mint address")
	rootCmd.AddCommand(deriveCmd)
}
