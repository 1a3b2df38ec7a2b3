package processor

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/bank"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/testutil"
)

const (
	fee            = bank.DefaultLamportsPerSignature
	startBalance   = 10_000_000_000
	vaultTokenSeed = 1_000_000
)

func TestInitialize(t *testing.T) {
	env := setup(t, false)

	payerBalance := env.balance(t, env.payerKey)

	_, err := env.bank.Submit(env.ctx, env.payer, nil, env.initializeInstruction())
	require.NoError(t, err)

	rentExempt := env.bank.Rent().MinimumBalance(exchangebooth.VaultAccountSize)
	assert.EqualValues(t, 1_336_320, rentExempt)
	assert.EqualValues(t, payerBalance-rentExempt-fee, env.balance(t, env.payerKey))

	account, ok := env.bank.GetAccount(env.vault)
	require.True(t, ok)
	assert.EqualValues(t, rentExempt, account.Lamports)
	assert.EqualValues(t, exchangebooth.PROGRAM_ID, account.Owner)
	require.Len(t, account.Data, exchangebooth.VaultAccountSize)

	var record exchangebooth.VaultAccount
	require.NoError(t, record.Unmarshal(account.Data))
	assert.EqualValues(t, env.payerKey, record.Admin)
	assert.EqualValues(t, env.vault, record.Vault)
	assert.True(t, record.IsSelfReferencing(env.vault))

	t.Run("already initialized", func(t *testing.T) {
		_, err := env.bank.Submit(env.ctx, env.payer, nil, env.initializeInstruction())
		assertInstructionError(t, err, system.ErrorAccountAlreadyInUse)

		after, ok := env.bank.GetAccount(env.vault)
		require.True(t, ok)
		assert.Equal(t, account.Data, after.Data)
	})

	t.Run("second mint", func(t *testing.T) {
		other := testutil.GenerateSolanaKeypair(t)
		otherKey := other.Public().(ed25519.PublicKey)
		require.NoError(t, env.bank.CreateMint(env.ctx, env.payer, other, env.payerKey, 0))

		otherVault, _, err := exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{Mint: otherKey})
		require.NoError(t, err)
		assert.NotEqual(t, env.vault, otherVault)

		ix := exchangebooth.NewInitializeInstruction(exchangebooth.PROGRAM_ID, &exchangebooth.InitializeInstructionAccounts{
			Payer: env.payerKey,
			Vault: otherVault,
			Mint:  otherKey,
		}, &exchangebooth.InitializeInstructionArgs{})
		_, err = env.bank.Submit(env.ctx, env.payer, nil, ix)
		require.NoError(t, err)

		account, ok := env.bank.GetAccount(otherVault)
		require.True(t, ok)
		assert.EqualValues(t, exchangebooth.PROGRAM_ID, account.Owner)
	})
}

func TestInitialize_Validation(t *testing.T) {
	env := setup(t, false)

	notMint := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	notMintVault, _, err := exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{Mint: notMint})
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		mutate   func(ix *solana.Instruction)
		expected exchangebooth.ExchangeBoothError
	}{
		{
			name: "wrong vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[1].PublicKey = testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
			},
			expected: exchangebooth.InvalidVaultAccount,
		},
		{
			name: "wrong program account",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = system.ProgramKey[:]
			},
			expected: exchangebooth.InvalidAccountAddress,
		},
		{
			name: "readonly vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[1].IsWritable = false
			},
			expected: exchangebooth.ExchangeBoothNotWritable,
		},
		{
			name: "not a mint",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[1].PublicKey = notMintVault
				ix.Accounts[3].PublicKey = notMint
			},
			expected: exchangebooth.InvalidMint,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ix := env.initializeInstruction()
			tc.mutate(&ix)

			_, err := env.bank.Submit(env.ctx, env.payer, nil, ix)
			assertInstructionError(t, err, solana.CustomError(tc.expected))

			code, ok := exchangebooth.GetError(err)
			require.True(t, ok)
			assert.Equal(t, tc.expected, code)
		})
	}

	_, ok := env.bank.GetAccount(env.vault)
	assert.False(t, ok)
}

func TestExchangeOut(t *testing.T) {
	env := setup(t, true)

	payerBalance := env.balance(t, env.payerKey)
	vaultBalance := env.balance(t, env.vault)

	_, err := env.bank.Submit(env.ctx, env.payer, nil, env.exchangeOutInstruction(1000))
	require.NoError(t, err)

	assert.EqualValues(t, payerBalance-1000-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, vaultBalance+1000, env.balance(t, env.vault))
	assert.EqualValues(t, 10_000, env.tokens(t, env.payerToken))
	assert.EqualValues(t, vaultTokenSeed-10_000, env.tokens(t, env.vaultToken))

	t.Run("insufficient vault tokens", func(t *testing.T) {
		payerBalance := env.balance(t, env.payerKey)
		vaultBalance := env.balance(t, env.vault)

		_, err := env.bank.Submit(env.ctx, env.payer, nil, env.exchangeOutInstruction(vaultTokenSeed))
		assertInstructionError(t, err, solana.CustomError(exchangebooth.InsufficientFunds))

		assert.EqualValues(t, payerBalance-fee, env.balance(t, env.payerKey))
		assert.EqualValues(t, vaultBalance, env.balance(t, env.vault))
		assert.EqualValues(t, 10_000, env.tokens(t, env.payerToken))
		assert.EqualValues(t, vaultTokenSeed-10_000, env.tokens(t, env.vaultToken))
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := env.bank.Submit(env.ctx, env.payer, nil, env.exchangeOutInstruction(0))
		require.NoError(t, err)
		assert.EqualValues(t, 10_000, env.tokens(t, env.payerToken))
	})
}

func TestExchangeIn(t *testing.T) {
	env := setup(t, true)

	t.Run("vault holds only its reserve", func(t *testing.T) {
		_, err := env.bank.Submit(env.ctx, env.payer, nil, env.exchangeInInstruction(1000))
		assertInstructionError(t, err, solana.CustomError(exchangebooth.InsufficientFunds))
	})

	_, err := env.bank.Submit(env.ctx, env.payer, nil, env.exchangeOutInstruction(1000))
	require.NoError(t, err)

	payerBalance := env.balance(t, env.payerKey)
	vaultBalance := env.balance(t, env.vault)

	_, err = env.bank.Submit(env.ctx, env.payer, nil, env.exchangeInInstruction(1000))
	require.NoError(t, err)

	assert.EqualValues(t, payerBalance+100-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, vaultBalance-100, env.balance(t, env.vault))
	assert.EqualValues(t, 9_000, env.tokens(t, env.payerToken))
	assert.EqualValues(t, vaultTokenSeed-9_000, env.tokens(t, env.vaultToken))

	// Amounts below the exchange rate move tokens without releasing lamports
	payerBalance = env.balance(t, env.payerKey)
	_, err = env.bank.Submit(env.ctx, env.payer, nil, env.exchangeInInstruction(9))
	require.NoError(t, err)
	assert.EqualValues(t, payerBalance-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, 8_991, env.tokens(t, env.payerToken))

	t.Run("insufficient payer tokens", func(t *testing.T) {
		_, err := env.bank.Airdrop(env.vault, 1_000_000_000)
		require.NoError(t, err)
		vaultBalance := env.balance(t, env.vault)

		_, err = env.bank.Submit(env.ctx, env.payer, nil, env.exchangeInInstruction(100_000))
		assertInstructionError(t, err, solana.CustomError(exchangebooth.InsufficientFunds))

		code, ok := exchangebooth.GetError(err)
		require.True(t, ok)
		assert.Equal(t, exchangebooth.InsufficientFunds, code)

		assert.EqualValues(t, 8_991, env.tokens(t, env.payerToken))
		assert.EqualValues(t, vaultBalance, env.balance(t, env.vault))
	})

	t.Run("payer token account owned by someone else", func(t *testing.T) {
		ix := env.exchangeInInstruction(10)
		ix.Accounts[2].PublicKey = env.createTokenAccount(t, env.mint, testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey))

		_, err := env.bank.Submit(env.ctx, env.payer, nil, ix)
		assertInstructionError(t, err, solana.CustomError(exchangebooth.InvalidOwner))
	})
}

func TestExchangeOut_InsufficientPayerLamports(t *testing.T) {
	env := setup(t, true)

	poor := testutil.GenerateSolanaKeypair(t)
	poorKey := poor.Public().(ed25519.PublicKey)
	_, err := env.bank.Airdrop(poorKey, 50_000)
	require.NoError(t, err)
	poorToken := env.createTokenAccount(t, env.mint, poorKey)

	ix := exchangebooth.NewExchangeOutInstruction(exchangebooth.PROGRAM_ID, &exchangebooth.ExchangeOutInstructionAccounts{
		Payer:             poorKey,
		PayerTokenAccount: poorToken,
		Mint:              env.mint,
		Vault:             env.vault,
		VaultTokenAccount: env.vaultToken,
	}, &exchangebooth.ExchangeOutInstructionArgs{Amount: 90_000})

	vaultBalance := env.balance(t, env.vault)

	_, err = env.bank.Submit(env.ctx, poor, nil, ix)
	assertInstructionError(t, err, solana.CustomError(exchangebooth.InsufficientFunds))

	code, ok := exchangebooth.GetError(err)
	require.True(t, ok)
	assert.Equal(t, exchangebooth.InsufficientFunds, code)

	assert.EqualValues(t, 50_000-fee, env.balance(t, poorKey))
	assert.EqualValues(t, vaultBalance, env.balance(t, env.vault))
	assert.EqualValues(t, 0, env.tokens(t, poorToken))
	assert.EqualValues(t, vaultTokenSeed, env.tokens(t, env.vaultToken))
}

func TestExchangeOut_FailingLaterInstruction(t *testing.T) {
	env := setup(t, true)

	payerBalance := env.balance(t, env.payerKey)
	vaultBalance := env.balance(t, env.vault)
	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)

	_, err := env.bank.Submit(
		env.ctx,
		env.payer,
		nil,
		env.exchangeOutInstruction(1000),
		system.Transfer(env.payerKey, receiver, startBalance),
	)
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 1, txErr.InstructionError().Index)

	// Both legs of the exchange are rolled back and only the fee is kept
	assert.EqualValues(t, payerBalance-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, vaultBalance, env.balance(t, env.vault))
	assert.EqualValues(t, 0, env.tokens(t, env.payerToken))
	assert.EqualValues(t, vaultTokenSeed, env.tokens(t, env.vaultToken))
	assert.EqualValues(t, 0, env.balance(t, receiver))
}

func TestExchange_Validation(t *testing.T) {
	env := setup(t, true)

	user := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)

	otherMint := testutil.GenerateSolanaKeypair(t)
	otherMintKey := otherMint.Public().(ed25519.PublicKey)
	require.NoError(t, env.bank.CreateMint(env.ctx, env.payer, otherMint, env.payerKey, 0))
	otherMintToken := env.createTokenAccount(t, otherMintKey, env.payerKey)

	otherVault, _, err := exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{Mint: otherMintKey})
	require.NoError(t, err)
	otherVaultToken := env.createTokenAccount(t, otherMintKey, otherVault)

	unownedVaultToken := env.createTokenAccount(t, env.mint, env.payerKey)

	for _, tc := range []struct {
		name     string
		mutate   func(ix *solana.Instruction)
		expected exchangebooth.ExchangeBoothError
	}{
		{
			name: "wrong program account",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[0].PublicKey = user
			},
			expected: exchangebooth.InvalidAccountAddress,
		},
		{
			name: "payer not signer",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[1].PublicKey = user
				ix.Accounts[1].IsSigner = false
			},
			expected: exchangebooth.AccountIsNotSigner,
		},
		{
			name: "readonly payer token account",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].IsWritable = false
			},
			expected: exchangebooth.AccountIsNotWritable,
		},
		{
			name: "wrong vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[4].PublicKey = user
			},
			expected: exchangebooth.InvalidAccountAddress,
		},
		{
			name: "readonly vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[4].IsWritable = false
			},
			expected: exchangebooth.ExchangeBoothNotWritable,
		},
		{
			name: "wrong token program",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[6].PublicKey = system.ProgramKey[:]
			},
			expected: exchangebooth.InvalidAccountAddress,
		},
		{
			name: "wrong system program",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[7].PublicKey = user
			},
			expected: exchangebooth.InvalidAccountAddress,
		},
		{
			name: "uninitialized vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = otherMintToken
				ix.Accounts[3].PublicKey = otherMintKey
				ix.Accounts[4].PublicKey = otherVault
				ix.Accounts[5].PublicKey = otherVaultToken
			},
			expected: exchangebooth.InvalidOwner,
		},
		{
			name: "payer token account for other mint",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = otherMintToken
			},
			expected: exchangebooth.InvalidMint,
		},
		{
			name: "vault token account not owned by vault",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[5].PublicKey = unownedVaultToken
			},
			expected: exchangebooth.InvalidOwner,
		},
		{
			name: "shared token account",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = env.vaultToken
			},
			expected: exchangebooth.UniqueMintAccounts,
		},
		{
			name: "payer token account is not a token account",
			mutate: func(ix *solana.Instruction) {
				ix.Accounts[2].PublicKey = user
			},
			expected: exchangebooth.InvalidSPLTokenAccount,
		},
	} {
		for _, build := range []func(uint32) solana.Instruction{env.exchangeOutInstruction, env.exchangeInInstruction} {
			ix := build(10)
			t.Run(tc.name+"/"+exchangeName(ix), func(t *testing.T) {
				tc.mutate(&ix)

				_, err := env.bank.Submit(env.ctx, env.payer, nil, ix)
				assertInstructionError(t, err, solana.CustomError(tc.expected))
			})
		}
	}

	t.Run("malformed data", func(t *testing.T) {
		for _, data := range []struct {
			data     []byte
			expected exchangebooth.ExchangeBoothError
		}{
			{nil, exchangebooth.InvalidInstruction},
			{[]byte{1, 0, 0}, exchangebooth.InvalidInstructionData},
			{[]byte{2}, exchangebooth.InvalidInstructionData},
			{[]byte{7, 0, 0, 0, 0}, exchangebooth.InvalidInstructionData},
		} {
			ix := env.exchangeOutInstruction(1)
			ix.Data = data.data

			_, err := env.bank.Submit(env.ctx, env.payer, nil, ix)
			assertInstructionError(t, err, solana.CustomError(data.expected))
		}
	})
}

func exchangeName(ix solana.Instruction) string {
	decoded, err := exchangebooth.Decode(ix.Data)
	if err != nil {
		return "invalid"
	}
	return decoded.Type.String()
}

type testEnv struct {
	ctx  context.Context
	bank *bank.Bank

	payer    ed25519.PrivateKey
	payerKey ed25519.PublicKey

	mint       ed25519.PublicKey
	vault      ed25519.PublicKey
	payerToken ed25519.PublicKey
	vaultToken ed25519.PublicKey
}

// setup creates a bank running the exchange booth with a funded payer and a
// fresh mint. When initialized is set, the mint's vault is created and its
// token account is stocked.
func setup(t *testing.T, initialized bool) *testEnv {
	b := bank.New()
	b.RegisterProgram(exchangebooth.PROGRAM_ID, New())

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	_, err := b.Airdrop(payerKey, startBalance)
	require.NoError(t, err)

	mint := testutil.GenerateSolanaKeypair(t)
	mintKey := mint.Public().(ed25519.PublicKey)

	env := &testEnv{
		ctx:      context.Background(),
		bank:     b,
		payer:    payer,
		payerKey: payerKey,
		mint:     mintKey,
	}
	require.NoError(t, b.CreateMint(env.ctx, payer, mint, payerKey, 0))

	env.vault, _, err = exchangebooth.GetVaultAddress(&exchangebooth.GetVaultAddressArgs{Mint: mintKey})
	require.NoError(t, err)

	if !initialized {
		return env
	}

	_, err = b.Submit(env.ctx, payer, nil, env.initializeInstruction())
	require.NoError(t, err)

	env.payerToken = env.createTokenAccount(t, mintKey, payerKey)
	env.vaultToken = env.createTokenAccount(t, mintKey, env.vault)
	require.NoError(t, b.MintTo(env.ctx, payer, payer, mintKey, env.vaultToken, vaultTokenSeed))

	return env
}

func (e *testEnv) createTokenAccount(t *testing.T, mint, owner ed25519.PublicKey) ed25519.PublicKey {
	account := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, e.bank.CreateTokenAccount(e.ctx, e.payer, account, mint, owner))
	return account.Public().(ed25519.PublicKey)
}

func (e *testEnv) initializeInstruction() solana.Instruction {
	return exchangebooth.NewInitializeInstruction(exchangebooth.PROGRAM_ID, &exchangebooth.InitializeInstructionAccounts{
		Payer: e.payerKey,
		Vault: e.vault,
		Mint:  e.mint,
	}, &exchangebooth.InitializeInstructionArgs{})
}

func (e *testEnv) exchangeOutInstruction(amount uint32) solana.Instruction {
	return exchangebooth.NewExchangeOutInstruction(exchangebooth.PROGRAM_ID, &exchangebooth.ExchangeOutInstructionAccounts{
		Payer:             e.payerKey,
		PayerTokenAccount: e.payerToken,
		Mint:              e.mint,
		Vault:             e.vault,
		VaultTokenAccount: e.vaultToken,
	}, &exchangebooth.ExchangeOutInstructionArgs{Amount: amount})
}

func (e *testEnv) exchangeInInstruction(amount uint32) solana.Instruction {
	return exchangebooth.NewExchangeInInstruction(exchangebooth.PROGRAM_ID, &exchangebooth.ExchangeInInstructionAccounts{
		Payer:             e.payerKey,
		PayerTokenAccount: e.payerToken,
		Mint:              e.mint,
		Vault:             e.vault,
		VaultTokenAccount: e.vaultToken,
	}, &exchangebooth.ExchangeInInstructionArgs{Amount: amount})
}

func (e *testEnv) balance(t *testing.T, key ed25519.PublicKey) uint64 {
	balance, err := bank.NewClient(e.bank).GetBalance(key, solana.CommitmentConfirmed)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) tokens(t *testing.T, key ed25519.PublicKey) uint64 {
	account, err := e.bank.GetTokenAccount(key)
	require.NoError(t, err)
	return account.Amount
}

func assertInstructionError(t *testing.T, err error, expected error) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 0, txErr.InstructionError().Index)
	assert.Equal(t, expected, txErr.InstructionError().Err)
}
