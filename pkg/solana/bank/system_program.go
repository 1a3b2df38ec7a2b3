package bank

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// maxPermittedDataLength is the largest account the system program allocates.
const maxPermittedDataLength = 10 * 1024 * 1024

// systemProgram implements the subset of the native system program used by
// the ledger: account creation and lamport transfers.
type systemProgram struct{}

func newSystemProgram() runtime.Program {
	return &systemProgram{}
}

func (p *systemProgram) Process(_ context.Context, _ runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	command, err := system.GetCommand(data)
	if err != nil {
		return runtime.ErrInvalidInstructionData
	}

	switch command {
	case system.CommandCreateAccount:
		args, err := system.UnmarshalCreateAccountData(data)
		if err != nil {
			return runtime.ErrInvalidInstructionData
		}
		return p.createAccount(accounts, args)
	case system.CommandTransfer:
		lamports, err := system.UnmarshalTransferData(data)
		if err != nil {
			return runtime.ErrInvalidInstructionData
		}
		return p.transfer(accounts, lamports)
	default:
		return runtime.ErrInvalidInstructionData
	}
}

func (p *systemProgram) createAccount(accounts []*runtime.AccountInfo, args *system.CreateAccountArgs) error {
	it := runtime.NewAccountIterator(accounts)
	funder, err := it.Next()
	if err != nil {
		return err
	}
	created, err := it.Next()
	if err != nil {
		return err
	}

	if !funder.IsSigner || !created.IsSigner {
		return runtime.ErrMissingRequiredSignature
	}
	if created.Lamports > 0 || len(created.Data) > 0 || !created.IsOwnedBy(system.SystemAccount) {
		return system.ErrorAccountAlreadyInUse
	}
	if args.Size > maxPermittedDataLength {
		return system.ErrorInvalidAccountDataLength
	}
	if funder.Lamports < args.Lamports {
		return system.ErrorResultWithNegativeLamports
	}

	created.Data = make([]byte, args.Size)
	created.Owner = args.Owner

	funder.Lamports -= args.Lamports
	created.Lamports += args.Lamports

	return nil
}

func (p *systemProgram) transfer(accounts []*runtime.AccountInfo, lamports uint64) error {
	it := runtime.NewAccountIterator(accounts)
	from, err := it.Next()
	if err != nil {
		return err
	}
	to, err := it.Next()
	if err != nil {
		return err
	}

	if !from.IsSigner {
		return runtime.ErrMissingRequiredSignature
	}
	if len(from.Data) > 0 {
		return runtime.ErrInvalidArgument
	}
	if from.Lamports < lamports {
		return system.ErrorResultWithNegativeLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports

	return nil
}
