package runtime

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// Invoker is the capability a program uses to call other programs.
type Invoker interface {
	// Invoke calls the instruction's program with the privileges of the
	// current instruction.
	Invoke(ctx context.Context, ix solana.Instruction) error

	// InvokeSigned behaves like Invoke, additionally granting signer
	// privileges to each address derived from the calling program and one
	// of the provided seed sets.
	InvokeSigned(ctx context.Context, ix solana.Instruction, signerSeeds ...[][]byte) error

	// Rent returns the rent parameters of the ledger.
	Rent() system.Rent
}

// Program processes instructions addressed to a program id.
type Program interface {
	Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error {
	return f(ctx, invoker, programID, accounts, data)
}
