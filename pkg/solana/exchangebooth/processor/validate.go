package processor

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

func (h *handler) deriveVault(mint *runtime.AccountInfo) (ed25519.PublicKey, uint8, error) {
	return exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{
		Program: h.programID,
		Mint:    mint.Key,
	})
}

func requireSigner(account *runtime.AccountInfo) error {
	if !account.IsSigner {
		return exchangebooth.AccountIsNotSigner
	}
	return nil
}

func requireWritable(accounts ...*runtime.AccountInfo) error {
	for _, account := range accounts {
		if !account.IsWritable {
			return exchangebooth.AccountIsNotWritable
		}
	}
	return nil
}

func requireKey(account *runtime.AccountInfo, expected ed25519.PublicKey) error {
	if !bytes.Equal(account.Key, expected) {
		return exchangebooth.InvalidAccountAddress
	}
	return nil
}

func isSystemProgram(key ed25519.PublicKey) bool {
	return bytes.Equal(key, system.ProgramKey[:])
}

func loadMint(account *runtime.AccountInfo) (*token.Mint, error) {
	if !account.IsOwnedBy(token.ProgramKey) {
		return nil, exchangebooth.InvalidMint
	}

	var mint token.Mint
	if !mint.Unmarshal(account.Data) || !mint.IsInitialized {
		return nil, exchangebooth.InvalidMint
	}
	return &mint, nil
}

func loadTokenAccount(account *runtime.AccountInfo, mint ed25519.PublicKey) (*token.Account, error) {
	if !account.IsOwnedBy(token.ProgramKey) {
		return nil, exchangebooth.InvalidSPLTokenAccount
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(account.Data) || !tokenAccount.IsInitialized() {
		return nil, exchangebooth.InvalidSPLTokenAccount
	}
	if !bytes.Equal(tokenAccount.Mint, mint) {
		return nil, exchangebooth.InvalidMint
	}
	return &tokenAccount, nil
}

func loadVault(account *runtime.AccountInfo, programID ed25519.PublicKey) (*exchangebooth.VaultAccount, error) {
	if !account.IsOwnedBy(programID) {
		return nil, exchangebooth.InvalidOwner
	}

	var vault exchangebooth.VaultAccount
	if err := vault.Unmarshal(account.Data); err != nil {
		return nil, exchangebooth.AccountNotInitialized
	}
	if !vault.IsSelfReferencing(account.Key) {
		return nil, exchangebooth.AccountNotInitialized
	}
	return &vault, nil
}
