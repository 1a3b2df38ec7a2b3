package exchangebooth

import (
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

type ExchangeInInstructionAccounts struct {
	Payer             ed25519.PublicKey
	PayerTokenAccount ed25519.PublicKey
	Mint              ed25519.PublicKey
	Vault             ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey
}

type ExchangeInInstructionArgs struct {
	Amount uint32
}

// NewExchangeInInstruction builds an instruction that sells amount tokens to
// the vault for LamportsForTokens(amount) lamports.
func NewExchangeInInstruction(
	program ed25519.PublicKey,
	accounts *ExchangeInInstructionAccounts,
	args *ExchangeInInstructionArgs,
) solana.Instruction {
	data := (&Instruction{
		Type:   InstructionTypeExchangeIn,
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
