package processor

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// exchangeOut moves amount lamports from the payer into the vault, then pays
// out TokensForLamports(amount) tokens from the vault's token account.
func (h *handler) exchangeOut(ctx context.Context, amount uint32) error {
	accounts, err := h.loadExchangeAccounts()
	if err != nil {
		return err
	}

	tokens := exchangebooth.TokensForLamports(amount)

	log := h.log.WithFields(logrus.Fields{
		"payer":    base58.Encode(accounts.payer.Key),
		"vault":    base58.Encode(accounts.vault.Key),
		"lamports": amount,
		"tokens":   tokens,
	})

	if accounts.vaultTokenState.Amount < tokens {
		log.WithField("available", accounts.vaultTokenState.Amount).Debug("vault token balance too low")
		return exchangebooth.InsufficientFunds
	}
	if accounts.payer.Lamports < uint64(amount) {
		log.WithField("available", accounts.payer.Lamports).Debug("payer lamport balance too low")
		return exchangebooth.InsufficientFunds
	}

	log.Debug("transferring lamports from payer to vault")

	err = h.invoker.Invoke(
		ctx,
		system.Transfer(accounts.payer.Key, accounts.vault.Key, uint64(amount)),
	)
	if err != nil {
		return err
	}

	log.Debug("transferring tokens from vault to payer")

	return h.invoker.InvokeSigned(
		ctx,
		token.Transfer(
			accounts.vaultTokenAccount.Key,
			accounts.payerTokenAccount.Key,
			accounts.vault.Key,
			tokens,
		),
		exchangebooth.VaultSeeds(accounts.mint.Key, accounts.bump),
	)
}
