package exchangebooth

import (
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

type InitializeInstructionAccounts struct {
	Payer ed25519.PublicKey
	Vault ed25519.PublicKey
	Mint  ed25519.PublicKey
}

type InitializeInstructionArgs struct {
}

// NewInitializeInstruction builds an Initialize instruction for program. The
// account order is [payer, vault, program, mint].
func NewInitializeInstruction(
	program ed25519.PublicKey,
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) solana.Instruction {
	data := (&Instruction{Type: InstructionTypeInitialize}).Encode()

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  program,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
