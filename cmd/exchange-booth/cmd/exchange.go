package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/exchange-booth/pkg/code/booth"
	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

type exchangeFunc func(client *booth.Client, ctx context.Context, args *booth.ExchangeArgs) (solana.Signature, error)

var exchangeOutCmd = newExchangeCmd(
	"exchange-out",
	"Exchange lamports for tokens",
	`Pay --amount lamports into the mint's vault and receive 10 tokens per lamport
from the vault token account.`,
	(*booth.Client).ExchangeOut,
	func(amount uint32) (uint64, uint64) {
		return uint64(amount), exchangebooth.TokensForLamports(amount)
	},
)

var exchangeInCmd = newExchangeCmd(
	"exchange-in",
	"Exchange tokens for lamports",
	`Pay --amount tokens into the vault token account and receive one lamport per
10 tokens from the mint's vault. Remainders are not refunded.`,
	(*booth.Client).ExchangeIn,
	func(amount uint32) (uint64, uint64) {
		return exchangebooth.LamportsForTokens(amount), uint64(amount)
	},
)

func newExchangeCmd(use, short, long string, exchange exchangeFunc, quote func(uint32) (lamports, tokens uint64)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			exchangeArgs, err := exchangeArgsFromFlags(cmd)
			if err != nil {
				return err
			}

			client, err := newBoothClient(nil)
			if err != nil {
				return err
			}

			sig, err := exchange(client, cmd.Context(), exchangeArgs)
			if err != nil {
				return describeError(err)
			}

			lamports, tokens := quote(exchangeArgs.Amount)
			fmt.Fprintf(cmd.OutOrStdout(), "Lamports:  %d\n", lamports)
			fmt.Fprintf(cmd.OutOrStdout(), "Tokens:    %d\n", tokens)
			fmt.Fprintf(cmd.OutOrStdout(), "Signature: %s\n", sig.ToBase58())
			return nil
		},
	}

	cmd.Flags().String("mint", "", "token mint address")
	cmd.Flags().String("payer-token", "", "payer token account address")
	cmd.Flags().String("vault-token", "", "vault token account address")
	cmd.Flags().Uint32("amount", 0, "amount to pay in")
	return cmd
}

func exchangeArgsFromFlags(cmd *cobra.Command) (*booth.ExchangeArgs, error) {
	mint, err := accountFlag(cmd, "mint")
	if err != nil {
		return nil, err
	}

	payerTokenAccount, err := accountFlag(cmd, "payer-token")
	if err != nil {
		return nil, err
	}

	vaultTokenAccount, err := accountFlag(cmd, "vault-token")
	if err != nil {
		return nil, err
	}

	amount, err := cmd.Flags().GetUint32("amount")
	if err != nil {
		return nil, err
	}

	payer, err := loadPayer()
	if err != nil {
		return nil, err
	}

	return &booth.ExchangeArgs{
		Payer:             payer,
		PayerTokenAccount: payerTokenAccount,
		Mint:              mint,
		VaultTokenAccount: vaultTokenAccount,
		Amount:            amount,
	}, nil
}

// describeError names the exchange booth error behind a failed transaction.
func describeError(err error) error {
	code, ok := exchangebooth.GetError(err)
	if !ok {
		return err
	}
	return errors.Wrapf(err, "exchange booth error %d (%s)", uint32(code), code.Error())
}

func init() {
	rootCmd.AddCommand(exchangeOutCmd)
	rootCmd.AddCommand(exchangeInCmd)
}
