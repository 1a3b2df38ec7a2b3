package exchangebooth

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

func TestNewInitializeInstruction(t *testing.T) {
	keys := generateKeys(t, 4)
	program, payer, vault, mint := keys[0], keys[1], keys[2], keys[3]

	ix := NewInitializeInstruction(program, &InitializeInstructionAccounts{
		Payer: payer,
		Vault: vault,
		Mint:  mint,
	}, &InitializeInstructionArgs{})

	assert.EqualValues(t, program, ix.Program)
	assert.Equal(t, []byte{0}, ix.Data)

	require.Len(t, ix.Accounts, 4)
	for i, expected := range []struct {
		key      ed25519.PublicKey
		writable bool
		signer   bool
	}{
		{payer, true, true},
		{vault, true, false},
		{program, false, false},
		{mint, false, false},
	} {
		assert.EqualValues(t, expected.key, ix.Accounts[i].PublicKey)
		assert.Equal(t, expected.writable, ix.Accounts[i].IsWritable)
		assert.Equal(t, expected.signer, ix.Accounts[i].IsSigner)
	}
}

func TestNewExchangeInstructions(t *testing.T) {
	keys := generateKeys(t, 6)
	program, payer, payerToken, mint, vault, vaultToken := keys[0], keys[1], keys[2], keys[3], keys[4], keys[5]

	out := NewExchangeOutInstruction(program, &ExchangeOutInstructionAccounts{
		Payer:             payer,
		PayerTokenAccount: payerToken,
		Mint:              mint,
		Vault:             vault,
		VaultTokenAccount: vaultToken,
	}, &ExchangeOutInstructionArgs{Amount: 1000})
	in := NewExchangeInInstruction(program, &ExchangeInInstructionAccounts{
		Payer:             payer,
		PayerTokenAccount: payerToken,
		Mint:              mint,
		Vault:             vault,
		VaultTokenAccount: vaultToken,
	}, &ExchangeInInstructionArgs{Amount: 1000})

	assert.Equal(t, []byte{1, 0xe8, 0x03, 0, 0}, out.Data)
	assert.Equal(t, []byte{2, 0xe8, 0x03, 0, 0}, in.Data)

	expected := []struct {
		key      ed25519.PublicKey
		writable bool
		signer   bool
	}{
		{program, false, false},
		{payer, true, true},
		{payerToken, true, false},
		{mint, false, false},
		{vault, true, false},
		{vaultToken, true, false},
		{SPL_TOKEN_PROGRAM_ID, false, false},
		{SYSTEM_PROGRAM_ID, false, false},
	}
	for _, ix := range []solana.Instruction{out, in} {
		assert.EqualValues(t, program, ix.Program)
		require.Len(t, ix.Accounts, len(expected))

		for i, e := range expected {
			assert.EqualValues(t, e.key, ix.Accounts[i].PublicKey)
			assert.Equal(t, e.writable, ix.Accounts[i].IsWritable)
			assert.Equal(t, e.signer, ix.Accounts[i].IsSigner)
		}
	}
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}
