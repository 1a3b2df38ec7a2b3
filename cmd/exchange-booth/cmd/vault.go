package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Show a mint's vault",
	Long:  `Fetch and validate the on-ledger vault record of a mint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := accountFlag(cmd, "mint")
		if err != nil {
			return err
		}

		client, err := newBoothClient(nil)
		if err != nil {
			return err
		}

		record, err := client.GetVault(cmd.Context(), mint)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Vault:    %s\n", record.Address)
		fmt.Fprintf(out, "Program:  %s\n", record.ProgramId)
		fmt.Fprintf(out, "Mint:     %s\n", record.Mint)
		fmt.Fprintf(out, "Bump:     %d\n", record.Bump)
		fmt.Fprintf(out, "Admin:    %s\n", record.Admin)
		fmt.Fprintf(out, "Lamports: %d\n", record.Lamports)
		fmt.Fprintf(out, "Slot:     %d\n", record.Slot)

		vaultToken, err := cmd.Flags().GetString("vault-token")
		if err != nil || len(vaultToken) == 0 {
			return err
		}

		tokenAccount, err := accountFlag(cmd, "vault-token")
		if err != nil {
			return err
		}

		state, err := client.GetTokenAccount(cmd.Context(), mint, tokenAccount)
		if err != nil {
			return errors.Wrap(err, "error getting vault token account")
		}

		fmt.Fprintf(out, "Tokens:   %d\n", state.Amount)
		return nil
	},
}

func init() {
	vaultCmd.Flags().String("mint", "", "token mint address")
	vaultCmd.Flags().String("vault-token", "", "vault token account to report the balance of")
	rootCmd.AddCommand(vaultCmd)
}
