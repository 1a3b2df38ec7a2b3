package booth

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

// Initialize creates the vault for mint, paid for and administered by payer.
//
// Returns ErrVaultAlreadyExists if the vault account is already allocated.
// The ledger would reject it with the system program's AccountAlreadyInUse
// code, which shares its numeric value with a booth error.
func (c *Client) Initialize(ctx context.Context, payer, mint *common.Account) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Initialize")
	defer tracer.End()
	if mint != nil {
		tracer.AddAttribute("mint", mint.PublicKey().ToBase58())
	}

	sig, err := c.initialize(ctx, payer, mint)
	tracer.OnError(err)
	return sig, err
}

func (c *Client) initialize(ctx context.Context, payer, mint *common.Account) (solana.Signature, error) {
	accounts, err := c.GetExchangeBoothAccounts(mint)
	if err != nil {
		return solana.Signature{}, err
	}

	log := c.log.WithFields(logrus.Fields{
		"method": "Initialize",
		"payer":  payer.PublicKey().ToBase58(),
		"mint":   mint.PublicKey().ToBase58(),
		"vault":  accounts.Vault.PublicKey().ToBase58(),
	})

	mu := c.mintLocks.Get(mint.PublicKey().ToBytes())
	mu.Lock()
	defer mu.Unlock()

	_, err = c.sc.GetAccountInfo(accounts.Vault.PublicKey().ToBytes(), c.commitment)
	switch err {
	case nil:
		return solana.Signature{}, ErrVaultAlreadyExists
	case solana.ErrNoAccountInfo:
	default:
		return solana.Signature{}, errors.Wrap(err, "error getting vault account info")
	}

	ix := exchangebooth.NewInitializeInstruction(
		accounts.Program.PublicKey().ToBytes(),
		&exchangebooth.InitializeInstructionAccounts{
			Payer: payer.PublicKey().ToBytes(),
			Vault: accounts.Vault.PublicKey().ToBytes(),
			Mint:  mint.PublicKey().ToBytes(),
		},
		&exchangebooth.InitializeInstructionArgs{},
	)

	sig, err := c.submit(ctx, payer, ix)
	if err != nil {
		log.WithError(err).Info("failure initializing vault")
		return sig, err
	}

	log.WithField("signature", sig.ToBase58()).Info("vault initialized")
	recordVaultInitializedEvent(ctx, accounts)
	return sig, nil
}

// GetVault fetches the on-ledger vault record for mint.
//
// Returns ErrVaultNotInitialized if the vault account does not exist, and
// ErrInvalidVaultState if it is not a well formed record owned by the program.
func (c *Client) GetVault(ctx context.Context, mint *common.Account) (*vault.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetVault")
	defer tracer.End()

	record, err := c.getVault(mint)
	tracer.OnError(err)
	return record, err
}

func (c *Client) getVault(mint *common.Account) (*vault.Record, error) {
	accounts, err := c.GetExchangeBoothAccounts(mint)
	if err != nil {
		return nil, err
	}

	info, err := c.sc.GetAccountInfo(accounts.Vault.PublicKey().ToBytes(), c.commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrVaultNotInitialized
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting vault account info")
	}

	if !bytes.Equal(accounts.Program.PublicKey().ToBytes(), info.Owner) {
		return nil, errors.Wrap(ErrInvalidVaultState, "vault is not owned by the program")
	}

	var state exchangebooth.VaultAccount
	if err := state.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidVaultState, err.Error())
	}

	if !state.IsSelfReferencing(accounts.Vault.PublicKey().ToBytes()) {
		return nil, errors.Wrap(ErrInvalidVaultState, "vault record does not reference its own address")
	}

	admin, err := common.NewAccountFromPublicKeyBytes(state.Admin)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidVaultState, "invalid admin")
	}

	return &vault.Record{
		Address:   accounts.Vault.PublicKey().ToBase58(),
		ProgramId: accounts.Program.PublicKey().ToBase58(),
		Mint:      mint.PublicKey().ToBase58(),
		Bump:      accounts.VaultBump,

		Admin:    admin.PublicKey().ToBase58(),
		Lamports: info.Lamports,

		Slot: info.Slot,
	}, nil
}

// SyncVault fetches the vault for mint and saves it to the vault store. An
// older observation than the stored one leaves the store untouched, and the
// stored record is returned.
func (c *Client) SyncVault(ctx context.Context, mint *common.Account) (*vault.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SyncVault")
	defer tracer.End()

	record, err := c.syncVault(ctx, mint)
	tracer.OnError(err)
	return record, err
}

func (c *Client) syncVault(ctx context.Context, mint *common.Account) (*vault.Record, error) {
	mu := c.mintLocks.Get(mint.PublicKey().ToBytes())
	mu.Lock()
	defer mu.Unlock()

	record, err := c.getVault(mint)
	if err != nil {
		return nil, err
	}

	existing, err := c.vaults.GetByAddress(ctx, record.Address)
	switch err {
	case nil:
		record.CreatedAt = existing.CreatedAt
	case vault.ErrVaultNotFound:
		record.CreatedAt = time.Now()
	default:
		return nil, errors.Wrap(err, "error getting stored vault")
	}
	record.LastUpdatedAt = time.Now()

	err = c.vaults.Save(ctx, record)
	if err == vault.ErrStaleVaultState {
		return c.vaults.GetByAddress(ctx, record.Address)
	} else if err != nil {
		return nil, errors.Wrap(err, "error saving vault")
	}

	recordVaultSyncedEvent(ctx, record)
	return record, nil
}
