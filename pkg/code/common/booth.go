package common

import (
	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

// ExchangeBoothAccounts are the derived accounts of a mint's exchange booth.
type ExchangeBoothAccounts struct {
	Program *Account
	Mint    *Account

	Vault     *Account
	VaultBump uint8
}

// GetExchangeBoothAccounts derives the vault for mint under program.
func GetExchangeBoothAccounts(program, mint *Account) (*ExchangeBoothAccounts, error) {
	if err := program.Validate(); err != nil {
		return nil, errors.Wrap(err, "error validating program account")
	}
	if err := mint.Validate(); err != nil {
		return nil, errors.Wrap(err, "error validating mint account")
	}

	address, bump, err := exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{
		Program: program.PublicKey().ToBytes(),
		Mint:    mint.PublicKey().ToBytes(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error getting vault address")
	}

	vault, err := NewAccountFromPublicKeyBytes(address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid vault address")
	}

	return &ExchangeBoothAccounts{
		Program:   program,
		Mint:      mint,
		Vault:     vault,
		VaultBump: bump,
	}, nil
}
