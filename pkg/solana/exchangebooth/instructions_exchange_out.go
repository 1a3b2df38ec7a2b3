package exchangebooth

import (
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

type ExchangeOutInstructionAccounts struct {
	Payer             ed25519.PublicKey
	PayerTokenAccount ed25519.PublicKey
	Mint              ed25519.PublicKey
	Vault             ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey
}

type ExchangeOutInstructionArgs struct {
	Amount uint32
}

// NewExchangeOutInstruction builds an instruction that buys
// TokensForLamports(amount) tokens from the vault for amount lamports.
func NewExchangeOutInstruction(
	program ed25519.PublicKey,
	accounts *ExchangeOutInstructionAccounts,
	args *ExchangeOutInstructionArgs,
) solana.Instruction {
	data := (&Instruction{
		Type:   InstructionTypeExchangeOut,
		Amount: args.Amount,
	}).Encode()

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: exchangeAccounts(
			program,
			accounts.Payer,
			accounts.PayerTokenAccount,
			accounts.Mint,
			accounts.Vault,
			accounts.VaultTokenAccount,
		),
	}
}

func exchangeAccounts(program, payer, payerTokenAccount, mint, vault, vaultTokenAccount ed25519.PublicKey) []solana.AccountMeta {
	return []solana.AccountMeta{
		{
			PublicKey:  program,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  payer,
			IsWritable: true,
			IsSigner:   true,
		},
		{
			PublicKey:  payerTokenAccount,
			IsWritable: true,
			IsSigner:   false,
		},
		{
			PublicKey:  mint,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  vault,
			IsWritable: true,
			IsSigner:   false,
		},
		{
			PublicKey:  vaultTokenAccount,
			IsWritable: true,
			IsSigner:   false,
		},
		{
			PublicKey:  SPL_TOKEN_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  SYSTEM_PROGRAM_ID,
			IsWritable: false,
			IsSigner:   false,
		},
	}
}
