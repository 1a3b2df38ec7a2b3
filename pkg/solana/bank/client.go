package bank

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

type client struct {
	bank *Bank
}

// NewClient returns a solana.Client backed by the bank. Submitted
// transactions are simulated first, and only committed if the simulation
// succeeds.
func NewClient(b *Bank) solana.Client {
	return &client{bank: b}
}

func (c *client) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.bank.mu.RLock()
	defer c.bank.mu.RUnlock()

	account, ok := c.bank.accounts[string(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	cloned := account.Clone()
	return solana.AccountInfo{
		Data:       cloned.Data,
		Owner:      cloned.Owner,
		Lamports:   cloned.Lamports,
		Executable: cloned.Executable,
		Slot:       c.bank.slot,
	}, nil
}

func (c *client) GetBalance(key ed25519.PublicKey, _ solana.Commitment) (uint64, error) {
	c.bank.mu.RLock()
	defer c.bank.mu.RUnlock()

	account, ok := c.bank.accounts[string(key)]
	if !ok {
		return 0, nil
	}
	return account.Lamports, nil
}

func (c *client) GetLatestBlockhash() (solana.Blockhash, error) {
	c.bank.mu.RLock()
	defer c.bank.mu.RUnlock()

	return c.bank.latestBlockhash(), nil
}

func (c *client) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses([]solana.Signature{sig})
	if err != nil {
		return nil, err
	}
	if statuses[0] == nil {
		return nil, solana.ErrSignatureNotFound
	}
	return statuses[0], nil
}

func (c *client) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.bank.mu.RLock()
	defer c.bank.mu.RUnlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		status, ok := c.bank.statuses[sig]
		if !ok {
			continue
		}

		cloned := *status
		statuses[i] = &cloned
	}
	return statuses, nil
}

// RequestAirdrop credits lamports to an account without a transaction.
func (c *client) RequestAirdrop(key ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	return c.bank.Airdrop(key, lamports)
}

func (c *client) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	ctx := context.Background()

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	if err := c.bank.SimulateTransaction(ctx, txn); err != nil {
		return sig, err
	}
	return c.bank.ProcessTransaction(ctx, txn)
}

// Airdrop credits lamports to key and records a successful signature status
// for the credit.
func (b *Bank) Airdrop(key ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	if len(key) != ed25519.PublicKeySize {
		return solana.Signature{}, errors.Errorf("invalid key: %s", base58.Encode(key))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[string(key)]
	if !ok {
		account = newSystemAccount()
		b.accounts[string(key)] = account
	}
	account.Lamports += lamports

	b.airdrops++

	var counter [8]byte
	binary.LittleEndian.PutUint64(counter[:], b.airdrops)

	h := sha256.New()
	h.Write(key)
	h.Write(counter[:])
	digest := h.Sum(nil)

	var sig solana.Signature
	copy(sig[:], digest)
	copy(sig[sha256.Size:], digest)

	b.statuses[sig] = &solana.SignatureStatus{
		Slot:               b.slot,
		ConfirmationStatus: "finalized",
	}
	b.advanceSlot()

	return sig, nil
}
