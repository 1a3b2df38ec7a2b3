package bank

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
	"github.com/code-payments/exchange-booth/pkg/testutil"
)

const (
	fee          = DefaultLamportsPerSignature
	startBalance = 10_000_000_000
)

func TestBank_Transfer(t *testing.T) {
	env := setup(t)

	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	sig, err := env.bank.Submit(env.ctx, env.payer, nil, system.Transfer(env.payerKey, receiver, 1_000_000_000))
	require.NoError(t, err)

	assert.EqualValues(t, startBalance-1_000_000_000-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, 1_000_000_000, env.balance(t, receiver))

	status, err := NewClient(env.bank).GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Nil(t, status.ErrorResult)
	assert.True(t, status.Finalized())
}

func TestBank_Options(t *testing.T) {
	rent := system.Rent{
		LamportsPerByteYear: 1,
		ExemptionThreshold:  1,
		BurnPercent:         0,
	}
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))

	b := New(WithRent(rent), WithLamportsPerSignature(10), WithClock(clock))
	assert.Equal(t, rent, b.Rent())
	assert.EqualValues(t, 10, b.LamportsPerSignature())

	sysvar, ok := b.GetAccount(system.RentSysVar)
	require.True(t, ok)
	assert.Equal(t, rent.Marshal(), sysvar.Data)

	// Same clock, same genesis blockhash.
	first, err := NewClient(b).GetLatestBlockhash()
	require.NoError(t, err)
	second, err := NewClient(New(WithClock(clock))).GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	_, err = b.Airdrop(payerKey, startBalance)
	require.NoError(t, err)

	// 1_000 lamports is only rent exempt under the custom rent.
	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	_, err = b.Submit(context.Background(), payer, nil, system.Transfer(payerKey, receiver, 1_000))
	require.NoError(t, err)

	balance, err := NewClient(b).GetBalance(payerKey, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, startBalance-1_000-10, balance)
}

func TestBank_FailedTransactionChargesFee(t *testing.T) {
	env := setup(t)

	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	sig, err := env.bank.Submit(env.ctx, env.payer, nil, system.Transfer(env.payerKey, receiver, startBalance))
	assertInstructionError(t, err, 0, system.ErrorResultWithNegativeLamports)

	assert.EqualValues(t, startBalance-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, 0, env.balance(t, receiver))

	status, err := NewClient(env.bank).GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	require.NotNil(t, status.ErrorResult)
	assert.Equal(t, solana.TransactionErrorInstructionError, status.ErrorResult.ErrorKey())
}

func TestBank_Atomicity(t *testing.T) {
	env := setup(t)

	first := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	second := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)

	_, err := env.bank.Submit(
		env.ctx,
		env.payer,
		nil,
		system.Transfer(env.payerKey, first, 1_000_000_000),
		system.Transfer(env.payerKey, second, startBalance),
	)
	assertInstructionError(t, err, 1, system.ErrorResultWithNegativeLamports)

	assert.EqualValues(t, startBalance-fee, env.balance(t, env.payerKey))
	assert.EqualValues(t, 0, env.balance(t, first))
	assert.EqualValues(t, 0, env.balance(t, second))
}

func TestBank_TransactionRejections(t *testing.T) {
	env := setup(t)
	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)

	newTxn := func() solana.Transaction {
		txn := solana.NewTransaction(env.payerKey, system.Transfer(env.payerKey, receiver, 1_000_000_000))
		blockhash, err := NewClient(env.bank).GetLatestBlockhash()
		require.NoError(t, err)
		txn.SetBlockhash(blockhash)
		require.NoError(t, txn.Sign(env.payer))
		return txn
	}

	t.Run("unsigned", func(t *testing.T) {
		txn := newTxn()
		txn.Signatures[0] = solana.Signature{}
		_, err := env.bank.ProcessTransaction(env.ctx, txn)
		assertTransactionError(t, err, solana.TransactionErrorSignatureFailure)
	})

	t.Run("unknown blockhash", func(t *testing.T) {
		txn := solana.NewTransaction(env.payerKey, system.Transfer(env.payerKey, receiver, 1))
		txn.SetBlockhash(solana.Blockhash{1, 2, 3})
		require.NoError(t, txn.Sign(env.payer))
		_, err := env.bank.ProcessTransaction(env.ctx, txn)
		assertTransactionError(t, err, solana.TransactionErrorBlockhashNotFound)
	})

	t.Run("duplicate signature", func(t *testing.T) {
		txn := newTxn()
		_, err := env.bank.ProcessTransaction(env.ctx, txn)
		require.NoError(t, err)
		_, err = env.bank.ProcessTransaction(env.ctx, txn)
		assertTransactionError(t, err, solana.TransactionErrorDuplicateSignature)
	})

	t.Run("unknown fee payer", func(t *testing.T) {
		stranger := testutil.GenerateSolanaKeypair(t)
		_, err := env.bank.Submit(env.ctx, stranger, nil, system.Transfer(stranger.Public().(ed25519.PublicKey), receiver, 1))
		assertTransactionError(t, err, solana.TransactionErrorAccountNotFound)
	})

	t.Run("insufficient funds for fee", func(t *testing.T) {
		poor := testutil.GenerateSolanaKeypair(t)
		_, err := env.bank.Airdrop(poor.Public().(ed25519.PublicKey), fee-1)
		require.NoError(t, err)
		_, err = env.bank.Submit(env.ctx, poor, nil, system.Transfer(poor.Public().(ed25519.PublicKey), receiver, 1))
		assertTransactionError(t, err, solana.TransactionErrorInsufficientFundsForFee)
		assert.EqualValues(t, fee-1, env.balance(t, poor.Public().(ed25519.PublicKey)))
	})

	t.Run("unknown program", func(t *testing.T) {
		program := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
		_, err := env.bank.Submit(env.ctx, env.payer, nil, solana.NewInstruction(program, []byte{0}))
		assertTransactionError(t, err, solana.TransactionErrorProgramAccountNotFound)
	})

	t.Run("rent", func(t *testing.T) {
		empty := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
		dust := env.bank.Rent().MinimumBalance(0) - 1
		_, err := env.bank.Submit(env.ctx, env.payer, nil, system.Transfer(env.payerKey, empty, dust))
		assertTransactionError(t, err, solana.TransactionErrorInsufficientFundsForRent)
	})
}

func TestBank_Simulate(t *testing.T) {
	env := setup(t)
	receiver := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)

	txn := solana.NewTransaction(env.payerKey, system.Transfer(env.payerKey, receiver, startBalance))
	blockhash, err := NewClient(env.bank).GetLatestBlockhash()
	require.NoError(t, err)
	txn.SetBlockhash(blockhash)
	require.NoError(t, txn.Sign(env.payer))

	slot := env.bank.Slot()

	err = env.bank.SimulateTransaction(env.ctx, txn)
	assertInstructionError(t, err, 0, system.ErrorResultWithNegativeLamports)

	_, err = NewClient(env.bank).SubmitTransaction(txn, solana.CommitmentFinalized)
	assertInstructionError(t, err, 0, system.ErrorResultWithNegativeLamports)

	assert.EqualValues(t, startBalance, env.balance(t, env.payerKey))
	assert.Equal(t, slot, env.bank.Slot())

	_, err = NewClient(env.bank).GetSignatureStatus(txn.Signatures[0], solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrSignatureNotFound, err)
}

func TestBank_CreateAccount(t *testing.T) {
	env := setup(t)
	owner := testutil.GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	created := testutil.GenerateSolanaKeypair(t)
	createdKey := created.Public().(ed25519.PublicKey)

	lamports := env.bank.Rent().MinimumBalance(64)
	_, err := env.bank.Submit(env.ctx, env.payer, []ed25519.PrivateKey{created}, system.CreateAccount(env.payerKey, createdKey, owner, lamports, 64))
	require.NoError(t, err)

	account, ok := env.bank.GetAccount(createdKey)
	require.True(t, ok)
	assert.EqualValues(t, owner, account.Owner)
	assert.EqualValues(t, 1_336_320, account.Lamports)
	assert.Len(t, account.Data, 64)

	_, err = env.bank.Submit(env.ctx, env.payer, []ed25519.PrivateKey{created}, system.CreateAccount(env.payerKey, createdKey, owner, lamports, 64))
	assertInstructionError(t, err, 0, system.ErrorAccountAlreadyInUse)
}

func TestBank_Token(t *testing.T) {
	env := setup(t)

	mint := testutil.GenerateSolanaKeypair(t)
	mintKey := mint.Public().(ed25519.PublicKey)
	require.NoError(t, env.bank.CreateMint(env.ctx, env.payer, mint, env.payerKey, 9))

	mintAccount, ok := env.bank.GetAccount(mintKey)
	require.True(t, ok)
	var mintState token.Mint
	require.True(t, mintState.Unmarshal(mintAccount.Data))
	assert.True(t, mintState.IsInitialized)
	assert.EqualValues(t, 9, mintState.Decimals)
	assert.EqualValues(t, env.payerKey, mintState.MintAuthority)

	owner := testutil.GenerateSolanaKeypair(t)
	ownerKey := owner.Public().(ed25519.PublicKey)
	source := testutil.GenerateSolanaKeypair(t)
	sourceKey := source.Public().(ed25519.PublicKey)
	destination := testutil.GenerateSolanaKeypair(t)
	destinationKey := destination.Public().(ed25519.PublicKey)

	require.NoError(t, env.bank.CreateTokenAccount(env.ctx, env.payer, source, mintKey, ownerKey))
	require.NoError(t, env.bank.CreateTokenAccount(env.ctx, env.payer, destination, mintKey, env.payerKey))
	require.NoError(t, env.bank.MintTo(env.ctx, env.payer, env.payer, mintKey, sourceKey, 1000))

	_, err := env.bank.Submit(env.ctx, env.payer, []ed25519.PrivateKey{owner}, token.Transfer(sourceKey, destinationKey, ownerKey, 400))
	require.NoError(t, err)

	sourceState, err := env.bank.GetTokenAccount(sourceKey)
	require.NoError(t, err)
	assert.EqualValues(t, 600, sourceState.Amount)

	destinationState, err := env.bank.GetTokenAccount(destinationKey)
	require.NoError(t, err)
	assert.EqualValues(t, 400, destinationState.Amount)

	// Only the owner may move tokens
	_, err = env.bank.Submit(env.ctx, env.payer, nil, token.Transfer(sourceKey, destinationKey, env.payerKey, 1))
	assertInstructionError(t, err, 0, token.ErrorOwnerMismatch)

	_, err = env.bank.Submit(env.ctx, env.payer, []ed25519.PrivateKey{owner}, token.Transfer(sourceKey, destinationKey, ownerKey, 601))
	assertInstructionError(t, err, 0, token.ErrorInsufficientFunds)

	// Accounts of a different mint cannot receive tokens
	otherMint := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, env.bank.CreateMint(env.ctx, env.payer, otherMint, env.payerKey, 0))
	other := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, env.bank.CreateTokenAccount(env.ctx, env.payer, other, otherMint.Public().(ed25519.PublicKey), ownerKey))
	_, err = env.bank.Submit(env.ctx, env.payer, []ed25519.PrivateKey{owner}, token.Transfer(sourceKey, other.Public().(ed25519.PublicKey), ownerKey, 1))
	assertInstructionError(t, err, 0, token.ErrorMintMismatch)

	// Initializing twice fails
	_, err = env.bank.Submit(env.ctx, env.payer, nil, token.InitializeAccount(sourceKey, mintKey, ownerKey))
	assertInstructionError(t, err, 0, token.ErrorAlreadyInUse)
}

type testEnv struct {
	ctx      context.Context
	bank     *Bank
	payer    ed25519.PrivateKey
	payerKey ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	b := New()

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)

	_, err := b.Airdrop(payerKey, startBalance)
	require.NoError(t, err)

	return &testEnv{
		ctx:      context.Background(),
		bank:     b,
		payer:    payer,
		payerKey: payerKey,
	}
}

func (e *testEnv) balance(t *testing.T, key ed25519.PublicKey) uint64 {
	balance, err := NewClient(e.bank).GetBalance(key, solana.CommitmentConfirmed)
	require.NoError(t, err)
	return balance
}

func assertTransactionError(t *testing.T, err error, expected solana.TransactionErrorKey) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, expected, txErr.ErrorKey())
}

func assertInstructionError(t *testing.T, err error, index int, expected error) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, index, txErr.InstructionError().Index)
	assert.Equal(t, expected, txErr.InstructionError().Err)
}
