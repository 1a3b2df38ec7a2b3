package exchangebooth

import (
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

var (
	VaultPrefix = []byte("vault")
)

type GetVaultAddressArgs struct {
	Program ed25519.PublicKey
	Mint    ed25519.PublicKey
}

// GetVaultAddress derives the vault for a mint under the provided program,
// falling back to PROGRAM_ID when none is set.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	program := args.Program
	if len(program) == 0 {
		program = PROGRAM_ID
	}

	return solana.FindProgramAddressAndBump(
		program,
		VaultPrefix,
		args.Mint,
	)
}

// VaultSeeds returns the signer seeds that authorize the vault in a cross
// program invocation.
func VaultSeeds(mint ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		VaultPrefix,
		mint,
		{bump},
	}
}
