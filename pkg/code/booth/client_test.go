package booth

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	vault_memory "github.com/code-payments/exchange-booth/pkg/code/data/vault/memory"
	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/bank"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth/processor"
	"github.com/code-payments/exchange-booth/pkg/testutil"
)

const (
	fee            = bank.DefaultLamportsPerSignature
	startBalance   = 10_000_000_000
	vaultTokenSeed = 1_000_000
)

func TestClient_Initialize(t *testing.T) {
	env := setup(t, &Overrides{})

	before := env.balance(t, env.payer)

	_, err := env.client.Initialize(env.ctx, env.payer, env.mint)
	require.NoError(t, err)

	rentExempt := env.bank.Rent().MinimumBalance(exchangebooth.VaultAccountSize)
	assert.EqualValues(t, before-rentExempt-fee, env.balance(t, env.payer))

	record, err := env.client.GetVault(env.ctx, env.mint)
	require.NoError(t, err)
	assert.Equal(t, env.vault.PublicKey().ToBase58(), record.Address)
	assert.Equal(t, toBase58(exchangebooth.PROGRAM_ID), record.ProgramId)
	assert.Equal(t, env.mint.PublicKey().ToBase58(), record.Mint)
	assert.Equal(t, env.payer.PublicKey().ToBase58(), record.Admin)
	assert.EqualValues(t, rentExempt, record.Lamports)
	assert.NotZero(t, record.Bump)
	assert.NoError(t, record.Validate())

	_, err = env.client.Initialize(env.ctx, env.payer, env.mint)
	assert.Equal(t, ErrVaultAlreadyExists, err)

	_, err = env.client.GetVault(env.ctx, testutil.NewRandomAccount(t))
	assert.Equal(t, ErrVaultNotInitialized, err)
}

func TestClient_GetVault_InvalidState(t *testing.T) {
	env := setup(t, &Overrides{})

	// Lamports alone leave the vault owned by the system program
	_, err := env.bank.Airdrop(env.vault.PublicKey().ToBytes(), 1_000_000)
	require.NoError(t, err)

	_, err = env.client.GetVault(env.ctx, env.mint)
	assert.ErrorIs(t, err, ErrInvalidVaultState)

	_, err = env.client.Initialize(env.ctx, env.payer, env.mint)
	assert.Equal(t, ErrVaultAlreadyExists, err)
}

func TestClient_Exchange(t *testing.T) {
	env := setup(t, &Overrides{})
	env.initialize(t)

	lamports := env.balance(t, env.payer)
	vaultLamports := env.balance(t, env.vault)

	_, err := env.client.ExchangeOut(env.ctx, env.exchangeArgs(1000))
	require.NoError(t, err)

	assert.EqualValues(t, lamports-1000-fee, env.balance(t, env.payer))
	assert.EqualValues(t, vaultLamports+1000, env.balance(t, env.vault))
	assert.EqualValues(t, 10_000, env.tokens(t, env.payerToken))
	assert.EqualValues(t, vaultTokenSeed-10_000, env.tokens(t, env.vaultToken))

	lamports = env.balance(t, env.payer)

	_, err = env.client.ExchangeIn(env.ctx, env.exchangeArgs(1000))
	require.NoError(t, err)

	assert.EqualValues(t, lamports+100-fee, env.balance(t, env.payer))
	assert.EqualValues(t, vaultLamports+900, env.balance(t, env.vault))
	assert.EqualValues(t, 9_000, env.tokens(t, env.payerToken))
	assert.EqualValues(t, vaultTokenSeed-9_000, env.tokens(t, env.vaultToken))
}

func TestClient_Exchange_ProgramErrors(t *testing.T) {
	env := setup(t, &Overrides{})
	env.initialize(t)

	otherMint := env.createMint(t)
	otherToken := env.createTokenAccount(t, otherMint, env.payer)

	for _, tc := range []struct {
		name     string
		mutate   func(args *ExchangeArgs)
		expected exchangebooth.ExchangeBoothError
	}{
		{
			name: "payer token account for another mint",
			mutate: func(args *ExchangeArgs) {
				args.PayerTokenAccount = otherToken
			},
			expected: exchangebooth.InvalidMint,
		},
		{
			name: "uninitialized vault",
			mutate: func(args *ExchangeArgs) {
				args.Mint = otherMint
			},
			expected: exchangebooth.InvalidOwner,
		},
		{
			name: "vault token account not owned by the vault",
			mutate: func(args *ExchangeArgs) {
				args.VaultTokenAccount = env.createTokenAccount(t, env.mint, env.payer)
			},
			expected: exchangebooth.InvalidOwner,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, exchange := range []func(context.Context, *ExchangeArgs) (solana.Signature, error){
				env.client.ExchangeOut,
				env.client.ExchangeIn,
			} {
				args := env.exchangeArgs(100)
				tc.mutate(args)

				lamports := env.balance(t, env.payer)

				_, err := exchange(env.ctx, args)
				require.Error(t, err)

				code, ok := exchangebooth.GetError(err)
				require.True(t, ok)
				assert.Equal(t, tc.expected, code)

				// Failed simulations are not charged
				assert.EqualValues(t, lamports, env.balance(t, env.payer))
			}
		})
	}

	t.Run("insufficient vault lamports", func(t *testing.T) {
		_, err := env.client.ExchangeIn(env.ctx, env.exchangeArgs(10))
		require.Error(t, err)

		code, ok := exchangebooth.GetError(err)
		require.True(t, ok)
		assert.Equal(t, exchangebooth.InsufficientFunds, code)
	})

	t.Run("insufficient payer tokens", func(t *testing.T) {
		_, err := env.bank.Airdrop(env.vault.PublicKey().ToBytes(), 1_000_000_000)
		require.NoError(t, err)

		_, err = env.client.ExchangeIn(env.ctx, env.exchangeArgs(10))
		require.Error(t, err)

		code, ok := exchangebooth.GetError(err)
		require.True(t, ok)
		assert.Equal(t, exchangebooth.InsufficientFunds, code)
		assert.EqualValues(t, 0, env.tokens(t, env.payerToken))
	})
}

func TestClient_Exchange_InvalidArgs(t *testing.T) {
	env := setup(t, &Overrides{})

	args := env.exchangeArgs(1)
	args.Payer, _ = common.NewAccountFromPublicKey(env.payer.PublicKey())
	_, err := env.client.ExchangeOut(env.ctx, args)
	assert.Equal(t, ErrMissingSigner, err)

	args = env.exchangeArgs(1)
	args.VaultTokenAccount = args.PayerTokenAccount
	_, err = env.client.ExchangeIn(env.ctx, args)
	assert.Error(t, err)

	args = env.exchangeArgs(1)
	args.Mint = nil
	_, err = env.client.ExchangeIn(env.ctx, args)
	assert.Error(t, err)
}

func TestClient_RateLimited(t *testing.T) {
	env := setup(t, &Overrides{SubmitRateLimit: 1})

	_, err := env.client.Initialize(env.ctx, env.payer, env.mint)
	require.NoError(t, err)

	_, err = env.client.Initialize(env.ctx, env.payer, env.createMint(t))
	assert.Equal(t, ErrRateLimited, err)
}

func TestClient_WaitForConfirmation_Timeout(t *testing.T) {
	env := setup(t, &Overrides{
		ConfirmationTimeout:      50 * time.Millisecond,
		ConfirmationPollInterval: 10 * time.Millisecond,
	})

	_, err := env.client.WaitForConfirmation(env.ctx, solana.Signature{1, 2, 3})
	assert.Equal(t, ErrConfirmationTimeout, err)

	sig, err := env.bank.Airdrop(env.payer.PublicKey().ToBytes(), 1)
	require.NoError(t, err)

	status, err := env.client.WaitForConfirmation(env.ctx, sig)
	require.NoError(t, err)
	assert.True(t, status.Finalized())
}

func TestClient_SyncVault(t *testing.T) {
	env := setup(t, &Overrides{})

	_, err := env.client.SyncVault(env.ctx, env.mint)
	assert.Equal(t, ErrVaultNotInitialized, err)

	env.initialize(t)

	synced, err := env.client.SyncVault(env.ctx, env.mint)
	require.NoError(t, err)

	stored, err := env.vaults.GetByMint(env.ctx, synced.ProgramId, synced.Mint)
	require.NoError(t, err)
	assert.Equal(t, synced.Address, stored.Address)
	assert.Equal(t, synced.Lamports, stored.Lamports)
	assert.Equal(t, synced.Slot, stored.Slot)

	_, err = env.client.ExchangeOut(env.ctx, env.exchangeArgs(500))
	require.NoError(t, err)

	updated, err := env.client.SyncVault(env.ctx, env.mint)
	require.NoError(t, err)
	assert.Equal(t, stored.Id, updated.Id)
	assert.Equal(t, stored.Lamports+500, updated.Lamports)
	assert.True(t, updated.Slot > stored.Slot)

	t.Run("stale", func(t *testing.T) {
		future := updated.Clone()
		future.Slot += 1_000
		future.Lamports = 1
		require.NoError(t, env.vaults.Save(env.ctx, &future))

		actual, err := env.client.SyncVault(env.ctx, env.mint)
		require.NoError(t, err)
		assert.Equal(t, future.Slot, actual.Slot)
		assert.EqualValues(t, 1, actual.Lamports)
	})
}

func TestSyncService_SyncAll(t *testing.T) {
	for _, concurrency := range []uint64{1, 8} {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			testSyncAll(t, concurrency)
		})
	}
}

func testSyncAll(t *testing.T, concurrency uint64) {
	env := setup(t, &Overrides{SyncBatchSize: 1, SyncConcurrency: concurrency})
	env.initialize(t)

	second := env.createMint(t)
	_, err := env.client.Initialize(env.ctx, env.payer, second)
	require.NoError(t, err)

	unknown := env.createMint(t)

	service := NewSyncService(env.client, env.mint, unknown)

	synced, err := service.SyncAll(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, synced)

	count, err := env.vaults.Count(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	service.Watch(second)

	synced, err = service.SyncAll(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, synced)

	// Stored vaults are synced without being watched
	synced, err = NewSyncService(env.client).SyncAll(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, synced)
}

func TestSyncService_Start(t *testing.T) {
	env := setup(t, &Overrides{})
	env.initialize(t)

	ctx, cancel := context.WithCancel(env.ctx)
	defer cancel()

	service := NewSyncService(env.client, env.mint)

	done := make(chan error, 1)
	go func() {
		done <- service.Start(ctx, 10*time.Millisecond)
	}()

	require.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		_, err := env.vaults.GetByAddress(env.ctx, env.vault.PublicKey().ToBase58())
		return err == nil
	}))

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}

type testEnv struct {
	ctx    context.Context
	bank   *bank.Bank
	client *Client
	vaults vault.Store

	payer *common.Account
	mint  *common.Account
	vault *common.Account

	payerToken *common.Account
	vaultToken *common.Account
}

func setup(t *testing.T, overrides *Overrides) *testEnv {
	b := bank.New()
	b.RegisterProgram(exchangebooth.PROGRAM_ID, processor.New())

	if overrides.SubmitRateLimit == 0 {
		overrides.SubmitRateLimit = 1_000
	}
	if overrides.ConfirmationPollInterval == 0 {
		overrides.ConfirmationPollInterval = 10 * time.Millisecond
	}

	vaults := vault_memory.New()
	client, err := NewClient(bank.NewClient(b), vaults, WithOverrides(overrides))
	require.NoError(t, err)

	env := &testEnv{
		ctx:    context.Background(),
		bank:   b,
		client: client,
		vaults: vaults,
		payer:  testutil.NewRandomAccount(t),
	}

	_, err = b.Airdrop(env.payer.PublicKey().ToBytes(), startBalance)
	require.NoError(t, err)

	env.mint = env.createMint(t)

	accounts, err := client.GetExchangeBoothAccounts(env.mint)
	require.NoError(t, err)
	env.vault = accounts.Vault

	env.payerToken = env.createTokenAccount(t, env.mint, env.payer)
	env.vaultToken = env.createTokenAccount(t, env.mint, env.vault)

	return env
}

func (e *testEnv) initialize(t *testing.T) {
	_, err := e.client.Initialize(e.ctx, e.payer, e.mint)
	require.NoError(t, err)

	require.NoError(t, e.bank.MintTo(e.ctx, e.signer(t, e.payer), e.signer(t, e.payer), e.mint.PublicKey().ToBytes(), e.vaultToken.PublicKey().ToBytes(), vaultTokenSeed))
}

func (e *testEnv) createMint(t *testing.T) *common.Account {
	mint := testutil.NewRandomAccount(t)
	require.NoError(t, e.bank.CreateMint(e.ctx, e.signer(t, e.payer), e.signer(t, mint), e.payer.PublicKey().ToBytes(), 0))
	return mint
}

func (e *testEnv) createTokenAccount(t *testing.T, mint, owner *common.Account) *common.Account {
	account := testutil.NewRandomAccount(t)
	require.NoError(t, e.bank.CreateTokenAccount(e.ctx, e.signer(t, e.payer), e.signer(t, account), mint.PublicKey().ToBytes(), owner.PublicKey().ToBytes()))

	public, err := common.NewAccountFromPublicKey(account.PublicKey())
	require.NoError(t, err)
	return public
}

func (e *testEnv) exchangeArgs(amount uint32) *ExchangeArgs {
	return &ExchangeArgs{
		Payer:             e.payer,
		PayerTokenAccount: e.payerToken,
		Mint:              e.mint,
		VaultTokenAccount: e.vaultToken,
		Amount:            amount,
	}
}

func (e *testEnv) signer(t *testing.T, account *common.Account) ed25519.PrivateKey {
	signer, err := account.Signer()
	require.NoError(t, err)
	return signer
}

func (e *testEnv) balance(t *testing.T, account *common.Account) uint64 {
	info, ok := e.bank.GetAccount(account.PublicKey().ToBytes())
	if !ok {
		return 0
	}
	return info.Lamports
}

func (e *testEnv) tokens(t *testing.T, account *common.Account) uint64 {
	tokenAccount, err := e.bank.GetTokenAccount(account.PublicKey().ToBytes())
	require.NoError(t, err)
	return tokenAccount.Amount
}

func toBase58(key ed25519.PublicKey) string {
	account, err := common.NewAccountFromPublicKeyBytes(key)
	if err != nil {
		return ""
	}
	return account.PublicKey().ToBase58()
}
