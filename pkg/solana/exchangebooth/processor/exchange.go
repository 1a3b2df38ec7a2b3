package processor

import (
	"bytes"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// exchangeAccounts are the validated accounts shared by both exchange
// directions.
//
// Accounts: [program, payer, payer_token_account, mint, vault,
// vault_token_account, token_program, system_program]
type exchangeAccounts struct {
	payer             *runtime.AccountInfo
	payerTokenAccount *runtime.AccountInfo
	mint              *runtime.AccountInfo
	vault             *runtime.AccountInfo
	vaultTokenAccount *runtime.AccountInfo

	bump            uint8
	payerTokenState *token.Account
	vaultTokenState *token.Account
}

func (h *handler) loadExchangeAccounts() (*exchangeAccounts, error) {
	infos := make([]*runtime.AccountInfo, 8)
	for i := range infos {
		info, err := h.accounts.Next()
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}

	program, tokenProgram, systemProgram := infos[0], infos[6], infos[7]
	accounts := &exchangeAccounts{
		payer:             infos[1],
		payerTokenAccount: infos[2],
		mint:              infos[3],
		vault:             infos[4],
		vaultTokenAccount: infos[5],
	}

	expectedVault, bump, err := h.deriveVault(accounts.mint)
	if err != nil {
		return nil, err
	}
	if err := requireKey(accounts.vault, expectedVault); err != nil {
		return nil, err
	}
	accounts.bump = bump

	if err := requireKey(program, h.programID); err != nil {
		return nil, err
	}
	if err := requireKey(tokenProgram, token.ProgramKey); err != nil {
		return nil, err
	}
	if !isSystemProgram(systemProgram.Key) {
		return nil, exchangebooth.InvalidAccountAddress
	}

	if err := requireSigner(accounts.payer); err != nil {
		return nil, err
	}
	if !accounts.vault.IsWritable {
		return nil, exchangebooth.ExchangeBoothNotWritable
	}
	if err := requireWritable(accounts.payer, accounts.payerTokenAccount, accounts.vaultTokenAccount); err != nil {
		return nil, err
	}

	if _, err := loadVault(accounts.vault, h.programID); err != nil {
		return nil, err
	}
	if _, err := loadMint(accounts.mint); err != nil {
		return nil, err
	}

	accounts.payerTokenState, err = loadTokenAccount(accounts.payerTokenAccount, accounts.mint.Key)
	if err != nil {
		return nil, err
	}
	accounts.vaultTokenState, err = loadTokenAccount(accounts.vaultTokenAccount, accounts.mint.Key)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(accounts.vaultTokenState.Owner, accounts.vault.Key) {
		return nil, exchangebooth.InvalidOwner
	}
	if bytes.Equal(accounts.payerTokenAccount.Key, accounts.vaultTokenAccount.Key) {
		return nil, exchangebooth.UniqueMintAccounts
	}

	return accounts, nil
}
