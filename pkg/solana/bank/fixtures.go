package bank

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// Submit builds a transaction paid for by payer, signs it with payer and
// signers against the latest blockhash, and processes it.
func (b *Bank) Submit(ctx context.Context, payer ed25519.PrivateKey, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), instructions...)

	b.mu.RLock()
	txn.SetBlockhash(b.latestBlockhash())
	b.mu.RUnlock()

	if err := txn.Sign(append([]ed25519.PrivateKey{payer}, signers...)...); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	return b.ProcessTransaction(ctx, txn)
}

// CreateMint creates and initializes a token mint at the mint key's address.
func (b *Bank) CreateMint(ctx context.Context, payer, mint ed25519.PrivateKey, authority ed25519.PublicKey, decimals byte) error {
	address := mint.Public().(ed25519.PublicKey)

	_, err := b.Submit(
		ctx,
		payer,
		[]ed25519.PrivateKey{mint},
		system.CreateAccount(
			payer.Public().(ed25519.PublicKey),
			address,
			token.ProgramKey,
			b.rent.MinimumBalance(token.MintSize),
			token.MintSize,
		),
		token.InitializeMint(address, authority, nil, decimals),
	)
	return err
}

// CreateTokenAccount creates and initializes a token account for mint,
// controlled by owner.
func (b *Bank) CreateTokenAccount(ctx context.Context, payer, account ed25519.PrivateKey, mint, owner ed25519.PublicKey) error {
	address := account.Public().(ed25519.PublicKey)

	_, err := b.Submit(
		ctx,
		payer,
		[]ed25519.PrivateKey{account},
		system.CreateAccount(
			payer.Public().(ed25519.PublicKey),
			address,
			token.ProgramKey,
			b.rent.MinimumBalance(token.AccountSize),
			token.AccountSize,
		),
		token.InitializeAccount(address, mint, owner),
	)
	return err
}

// MintTo mints amount tokens into a token account.
func (b *Bank) MintTo(ctx context.Context, payer, authority ed25519.PrivateKey, mint, destination ed25519.PublicKey, amount uint64) error {
	var signers []ed25519.PrivateKey
	if !authority.Public().(ed25519.PublicKey).Equal(payer.Public()) {
		signers = append(signers, authority)
	}

	_, err := b.Submit(
		ctx,
		payer,
		signers,
		token.MintTo(mint, destination, authority.Public().(ed25519.PublicKey), amount),
	)
	return err
}

// GetTokenAccount returns the token state stored at key.
func (b *Bank) GetTokenAccount(key ed25519.PublicKey) (*token.Account, error) {
	account, ok := b.GetAccount(key)
	if !ok {
		return nil, solana.ErrNoAccountInfo
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(account.Data) {
		return nil, token.ErrInvalidTokenAccount
	}
	return &tokenAccount, nil
}
