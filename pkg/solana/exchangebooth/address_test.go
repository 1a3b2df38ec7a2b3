package exchangebooth

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

func TestGetVaultAddress(t *testing.T) {
	for _, tc := range []struct {
		mint     string
		expected string
		bump     uint8
	}{
		{
			mint:     "kinXdEcpDQeHPEuQnqmUgtYykqKGVFq6CeVX5iAHJq6",
			expected: "4kRcxRrii2PjLn9D1pc2ecg2PjiDvukCZKMyX5rTBLts",
			bump:     255,
		},
		{
			mint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			expected: "8fXKZMHXjcy46xA2Gz7ARNnjYfaTCYQEMY9KXet6mque",
			bump:     255,
		},
		{
			mint:     "C9cAPKjWG8dsujybrn6LhXnTxAx3Y6Z9HVtrfQ1Cn8Hy",
			expected: "6Zg3mhXrmVB3knvm4E46JwLTWmAL7V4mDLmLNRQR9sdD",
			bump:     252,
		},
	} {
		address, bump, err := GetVaultAddress(&GetVaultAddressArgs{
			Mint: mustBase58Decode(tc.mint),
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(address))
		assert.Equal(t, tc.bump, bump)

		// The signer seeds must reproduce the derived address
		recreated, err := solana.CreateProgramAddress(PROGRAM_ID, VaultSeeds(mustBase58Decode(tc.mint), bump)...)
		require.NoError(t, err)
		assert.EqualValues(t, address, recreated)
	}
}

func TestGetVaultAddress_Deterministic(t *testing.T) {
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint1, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint2, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	first, firstBump, err := GetVaultAddress(&GetVaultAddressArgs{Program: program, Mint: mint1})
	require.NoError(t, err)
	second, secondBump, err := GetVaultAddress(&GetVaultAddressArgs{Program: program, Mint: mint1})
	require.NoError(t, err)
	assert.EqualValues(t, first, second)
	assert.Equal(t, firstBump, secondBump)

	other, _, err := GetVaultAddress(&GetVaultAddressArgs{Program: program, Mint: mint2})
	require.NoError(t, err)
	assert.NotEqualValues(t, first, other)

	defaultProgram, _, err := GetVaultAddress(&GetVaultAddressArgs{Mint: mint1})
	require.NoError(t, err)
	assert.NotEqualValues(t, first, defaultProgram)
}
