package processor

import (
	"bytes"
	"context"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// exchangeIn moves amount tokens from the payer into the vault's token
// account, then releases LamportsForTokens(amount) lamports from the vault.
//
// The vault holds data and is owned by this program, so the system program
// cannot debit it. The release is a direct debit of the vault and credit of
// the payer.
func (h *handler) exchangeIn(ctx context.Context, amount uint32) error {
	accounts, err := h.loadExchangeAccounts()
	if err != nil {
		return err
	}

	lamports := exchangebooth.LamportsForTokens(amount)

	log := h.log.WithFields(logrus.Fields{
		"payer":    base58.Encode(accounts.payer.Key),
		"vault":    base58.Encode(accounts.vault.Key),
		"tokens":   amount,
		"lamports": lamports,
	})

	// Only the owner may authorize the transfer into the vault
	if !bytes.Equal(accounts.payerTokenState.Owner, accounts.payer.Key) {
		log.WithField("owner", base58.Encode(accounts.payerTokenState.Owner)).Debug("payer does not own token account")
		return exchangebooth.InvalidOwner
	}

	reserve := h.invoker.Rent().MinimumBalance(uint64(len(accounts.vault.Data)))
	if accounts.vault.Lamports < reserve || accounts.vault.Lamports-reserve < lamports {
		log.WithField("available", accounts.vault.Lamports).Debug("vault lamport balance too low")
		return exchangebooth.InsufficientFunds
	}
	if accounts.payerTokenState.Amount < uint64(amount) {
		log.WithField("available", accounts.payerTokenState.Amount).Debug("payer token balance too low")
		return exchangebooth.InsufficientFunds
	}

	log.Debug("transferring tokens from payer to vault")

	err = h.invoker.Invoke(
		ctx,
		token.Transfer(
			accounts.payerTokenAccount.Key,
			accounts.vaultTokenAccount.Key,
			accounts.payer.Key,
			uint64(amount),
		),
	)
	if err != nil {
		return err
	}

	log.Debug("releasing lamports from vault to payer")

	accounts.vault.Lamports -= lamports
	accounts.payer.Lamports += lamports

	return nil
}
