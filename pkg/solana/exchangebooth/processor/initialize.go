package processor

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// initialize creates the vault record for a mint at its derived address.
//
// Accounts: [payer, vault, program, mint]
func (h *handler) initialize(ctx context.Context) error {
	payer, err := h.accounts.Next()
	if err != nil {
		return err
	}
	vault, err := h.accounts.Next()
	if err != nil {
		return err
	}
	program, err := h.accounts.Next()
	if err != nil {
		return err
	}
	mint, err := h.accounts.Next()
	if err != nil {
		return err
	}

	expectedVault, bump, err := h.deriveVault(mint)
	if err != nil {
		return err
	}

	log := h.log.WithFields(logrus.Fields{
		"payer": base58.Encode(payer.Key),
		"vault": base58.Encode(expectedVault),
		"mint":  base58.Encode(mint.Key),
	})

	if err := requireKey(vault, expectedVault); err != nil {
		log.WithField("supplied", base58.Encode(vault.Key)).Debug("invalid vault account")
		return exchangebooth.InvalidVaultAccount
	}
	if err := requireKey(program, h.programID); err != nil {
		return err
	}
	if err := requireSigner(payer); err != nil {
		return err
	}
	if !vault.IsWritable {
		return exchangebooth.ExchangeBoothNotWritable
	}
	if err := requireWritable(payer); err != nil {
		return err
	}
	if _, err := loadMint(mint); err != nil {
		return err
	}

	log.Debug("creating vault")

	err = h.invoker.InvokeSigned(
		ctx,
		system.CreateAccount(
			payer.Key,
			vault.Key,
			h.programID,
			h.invoker.Rent().MinimumBalance(exchangebooth.VaultAccountSize),
			exchangebooth.VaultAccountSize,
		),
		exchangebooth.VaultSeeds(mint.Key, bump),
	)
	if err != nil {
		return err
	}

	record := &exchangebooth.VaultAccount{
		Admin: payer.Key,
		Vault: vault.Key,
	}
	copy(vault.Data, record.Marshal())

	return nil
}
