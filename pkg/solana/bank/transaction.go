package bank

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// ProcessTransaction executes a transaction and commits its effects. If any
// instruction fails, every effect except the fee is discarded.
//
// The returned error is a *solana.TransactionError when the ledger rejected
// or failed the transaction.
func (b *Bank) ProcessTransaction(ctx context.Context, txn solana.Transaction) (solana.Signature, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.processTransaction(ctx, txn, false)
}

// SimulateTransaction executes a transaction without committing anything,
// the fee included.
func (b *Bank) SimulateTransaction(ctx context.Context, txn solana.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.processTransaction(ctx, txn, true)
	return err
}

func (b *Bank) processTransaction(ctx context.Context, txn solana.Transaction, simulate bool) (solana.Signature, error) {
	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	log := b.log.WithFields(logrus.Fields{
		"method":    "ProcessTransaction",
		"signature": sig.ToBase58(),
		"simulate":  simulate,
	})

	if txErr := b.sanitize(txn); txErr != nil {
		log.WithError(txErr).Info("transaction rejected")
		return sig, txErr
	}

	payer := txn.Message.Accounts[0]
	fee := b.lamportsPerSignature * uint64(len(txn.Signatures))

	payerAccount, ok := b.accounts[string(payer)]
	if !ok {
		log.Info("fee payer not found")
		return sig, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if payerAccount.Lamports < fee {
		log.Info("insufficient funds for fee")
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}

	// The fee is charged up front and survives a failed execution
	charged := b.cloneAccounts()
	charged[string(payer)].Lamports -= fee

	working := cloneAccountMap(charged)
	txErr := b.execute(ctx, log, txn.Message, working)
	if txErr == nil {
		txErr = b.checkRentState(txn.Message, charged, working)
	}

	if simulate {
		return sig, txErrorOrNil(txErr)
	}

	if txErr != nil {
		b.commit(charged)
		log.WithError(txErr).Info("transaction failed")
	} else {
		b.commit(working)
		log.Debug("transaction succeeded")
	}

	b.statuses[sig] = &solana.SignatureStatus{
		Slot:               b.slot,
		ErrorResult:        txErr,
		ConfirmationStatus: "finalized",
	}
	b.advanceSlot()

	return sig, txErrorOrNil(txErr)
}

// txErrorOrNil keeps a nil *solana.TransactionError from becoming a non-nil
// error interface.
func txErrorOrNil(txErr *solana.TransactionError) error {
	if txErr == nil {
		return nil
	}
	return txErr
}

func (b *Bank) sanitize(txn solana.Transaction) *solana.TransactionError {
	m := txn.Message

	if m.Header.NumSignatures == 0 || len(txn.Signatures) == 0 {
		return solana.NewTransactionError(solana.TransactionErrorMissingSignatureForFee)
	}
	if int(m.Header.NumSignatures) > len(m.Accounts) ||
		int(m.Header.NumReadonlySigned) >= int(m.Header.NumSignatures) ||
		int(m.Header.NumReadOnly) > len(m.Accounts)-int(m.Header.NumSignatures) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	seen := make(map[string]struct{}, len(m.Accounts))
	for _, account := range m.Accounts {
		if len(account) != ed25519.PublicKeySize {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if _, ok := seen[string(account)]; ok {
			return solana.NewTransactionError(solana.TransactionErrorAccountLoadedTwice)
		}
		seen[string(account)] = struct{}{}
	}

	for _, ix := range m.Instructions {
		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
			}
		}
		if _, ok := b.programs[string(m.Accounts[ix.ProgramIndex])]; !ok {
			return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
		}
	}

	if err := txn.VerifySignatures(); err != nil {
		return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if !b.isRecentBlockhash(m.RecentBlockhash) {
		return solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := b.statuses[txn.Signatures[0]]; ok {
		return solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	return nil
}

func (b *Bank) execute(ctx context.Context, log *logrus.Entry, m solana.Message, working map[string]*runtime.Account) *solana.TransactionError {
	e := &executor{
		bank:    b,
		working: working,
	}

	for i, ix := range m.Instructions {
		program := m.Accounts[ix.ProgramIndex]

		accounts := make([]*runtime.AccountInfo, len(ix.Accounts))
		for j, index := range ix.Accounts {
			key := m.Accounts[index]
			accounts[j] = &runtime.AccountInfo{
				Key:        key,
				IsSigner:   m.IsSigner(int(index)),
				IsWritable: m.IsWritable(int(index)),
				Account:    e.load(key),
			}
		}

		err := e.run(ctx, program, accounts, ix.Data)
		if err == nil {
			continue
		}

		log.WithFields(logrus.Fields{
			"instruction": i,
			"program":     base58.Encode(program),
		}).WithError(err).Debug("instruction failed")

		txErr, convErr := solana.TransactionErrorFromInstructionError(runtime.ToInstructionError(i, err))
		if convErr != nil {
			log.WithError(convErr).Warn("failed to convert instruction error")
			return solana.NewTransactionError(solana.TransactionErrorInternal)
		}
		return txErr
	}

	return nil
}

type rentState int

const (
	rentStateUninitialized rentState = iota
	rentStateRentPaying
	rentStateRentExempt
)

func (b *Bank) rentStateOf(account *runtime.Account) rentState {
	if account == nil || account.Lamports == 0 {
		return rentStateUninitialized
	}
	if b.rent.IsExempt(account.Lamports, uint64(len(account.Data))) {
		return rentStateRentExempt
	}
	return rentStateRentPaying
}

// checkRentState rejects transactions that leave a writable account with a
// balance below its rent exempt minimum, unless it already was.
func (b *Bank) checkRentState(m solana.Message, pre, post map[string]*runtime.Account) *solana.TransactionError {
	for i, key := range m.Accounts {
		if !m.IsWritable(i) {
			continue
		}

		after := b.rentStateOf(post[string(key)])
		if after != rentStateRentPaying {
			continue
		}
		if b.rentStateOf(pre[string(key)]) == rentStateRentPaying {
			continue
		}

		b.log.WithField("account", base58.Encode(key)).Debug("account left below rent exempt minimum")
		return solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForRent)
	}

	return nil
}

func (b *Bank) cloneAccounts() map[string]*runtime.Account {
	return cloneAccountMap(b.accounts)
}

func cloneAccountMap(accounts map[string]*runtime.Account) map[string]*runtime.Account {
	cloned := make(map[string]*runtime.Account, len(accounts))
	for k, v := range accounts {
		cloned[k] = v.Clone()
	}
	return cloned
}

// commit replaces the ledger state. Accounts drained of lamports are removed.
func (b *Bank) commit(accounts map[string]*runtime.Account) {
	for k, v := range accounts {
		if v.Lamports == 0 {
			delete(accounts, k)
		}
	}
	b.accounts = accounts
}

func newSystemAccount() *runtime.Account {
	return &runtime.Account{
		Owner: system.SystemAccount,
	}
}
