package bank

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// executor runs the instructions of a single transaction against a working
// copy of the ledger.
type executor struct {
	bank    *Bank
	working map[string]*runtime.Account
	stack   []*frame
}

// frame is a program invocation, either a top level instruction or a cross
// program invocation.
type frame struct {
	programID ed25519.PublicKey
	accounts  []*runtime.AccountInfo

	// pre holds the account states the frame's changes are verified against
	pre map[string]*runtime.Account
}

func (e *executor) load(key ed25519.PublicKey) *runtime.Account {
	account, ok := e.working[string(key)]
	if !ok {
		account = newSystemAccount()
		e.working[string(key)] = account
	}
	return account
}

func (e *executor) run(ctx context.Context, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	program, ok := e.bank.programs[string(programID)]
	if !ok {
		return runtime.ErrUnsupportedProgramID
	}
	if len(e.stack) >= MaxInvokeDepth {
		return runtime.ErrCallDepth
	}

	f := &frame{
		programID: programID,
		accounts:  accounts,
	}
	f.snapshot()

	e.stack = append(e.stack, f)
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
	}()

	if err := program.Process(ctx, &invoker{executor: e, frame: f}, programID, accounts, data); err != nil {
		return err
	}

	return f.verify()
}

func (f *frame) snapshot() {
	f.pre = make(map[string]*runtime.Account, len(f.accounts))
	for _, account := range f.accounts {
		f.pre[string(account.Key)] = account.Account.Clone()
	}
}

// verify enforces the ownership rules of the ledger on the changes made by
// the frame's program since the last snapshot.
func (f *frame) verify() error {
	writable := make(map[string]bool, len(f.accounts))
	for _, account := range f.accounts {
		writable[string(account.Key)] = writable[string(account.Key)] || account.IsWritable
	}

	var preTotal, postTotal uint64
	seen := make(map[string]struct{}, len(f.accounts))
	for _, account := range f.accounts {
		key := string(account.Key)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		pre, post := f.pre[key], account.Account
		preTotal += pre.Lamports
		postTotal += post.Lamports

		if pre.Equals(post) {
			continue
		}

		isOwner := pre.IsOwnedBy(f.programID)

		if !writable[key] {
			if pre.Lamports != post.Lamports {
				return runtime.ErrReadonlyLamportChange
			}
			return runtime.ErrReadonlyDataModified
		}

		if !bytes.Equal(pre.Owner, post.Owner) {
			if !isOwner || !isZeroed(pre.Data) {
				return runtime.ErrModifiedProgramID
			}
		}
		if pre.Executable != post.Executable {
			return runtime.ErrModifiedProgramID
		}
		if post.Lamports < pre.Lamports && !isOwner {
			return runtime.ErrExternalAccountLamportSpend
		}
		if len(pre.Data) != len(post.Data) && !isOwner {
			return runtime.ErrAccountDataSizeChanged
		}
		if !bytes.Equal(pre.Data, post.Data) && !isOwner {
			return runtime.ErrExternalAccountDataModified
		}
	}

	if preTotal != postTotal {
		return runtime.ErrUnbalancedInstruction
	}

	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// invoker is the runtime.Invoker handed to the program running in a frame.
type invoker struct {
	executor *executor
	frame    *frame
}

func (i *invoker) Rent() system.Rent {
	return i.executor.bank.rent
}

func (i *invoker) Invoke(ctx context.Context, ix solana.Instruction) error {
	return i.InvokeSigned(ctx, ix)
}

func (i *invoker) InvokeSigned(ctx context.Context, ix solana.Instruction, signerSeeds ...[][]byte) error {
	caller := i.frame

	log := i.executor.bank.log.WithFields(logrus.Fields{
		"method":  "InvokeSigned",
		"caller":  base58.Encode(caller.programID),
		"program": base58.Encode(ix.Program),
		"depth":   len(i.executor.stack),
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	// Only direct self recursion may re-enter a program already on the stack
	if !bytes.Equal(caller.programID, ix.Program) {
		for _, f := range i.executor.stack {
			if bytes.Equal(f.programID, ix.Program) {
				return runtime.ErrReentrancyNotAllowed
			}
		}
	}

	// Changes made by the caller so far must be valid before the callee
	// observes them
	if err := caller.verify(); err != nil {
		return err
	}

	pdaSigners := make([]ed25519.PublicKey, 0, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(caller.programID, seeds...)
		if err == solana.ErrMaxSeedLengthExceeded {
			return runtime.ErrMaxSeedLengthExceeded
		} else if err != nil {
			return runtime.ErrInvalidSeeds
		}
		pdaSigners = append(pdaSigners, address)
	}

	accounts := make([]*runtime.AccountInfo, len(ix.Accounts))
	for j, meta := range ix.Accounts {
		callerAccount := findAccount(caller.accounts, meta.PublicKey)
		if callerAccount == nil {
			log.WithField("account", base58.Encode(meta.PublicKey)).Debug("account not passed to caller")
			return runtime.ErrMissingAccount
		}

		if meta.IsWritable && !callerAccount.IsWritable {
			log.WithField("account", base58.Encode(meta.PublicKey)).Debug("writable privilege escalated")
			return runtime.ErrPrivilegeEscalation
		}
		if meta.IsSigner && !callerAccount.IsSigner && !containsKey(pdaSigners, meta.PublicKey) {
			log.WithField("account", base58.Encode(meta.PublicKey)).Debug("signer privilege escalated")
			return runtime.ErrPrivilegeEscalation
		}

		accounts[j] = &runtime.AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    callerAccount.Account,
		}
	}

	if err := i.executor.run(ctx, ix.Program, accounts, ix.Data); err != nil {
		return err
	}

	// The callee's changes are the caller's new baseline
	caller.snapshot()
	return nil
}

func findAccount(accounts []*runtime.AccountInfo, key ed25519.PublicKey) *runtime.AccountInfo {
	var found *runtime.AccountInfo
	for _, account := range accounts {
		if !bytes.Equal(account.Key, key) {
			continue
		}
		if found == nil {
			found = &runtime.AccountInfo{Key: account.Key, Account: account.Account}
		}
		found.IsSigner = found.IsSigner || account.IsSigner
		found.IsWritable = found.IsWritable || account.IsWritable
	}
	return found
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
