package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/app"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestDerive(t *testing.T) {
	out, err := execute(t, "derive", "--mint", "kinXdEcpDQeHPEuQnqmUgtYykqKGVFq6CeVX5iAHJq6")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault:   4kRcxRrii2PjLn9D1pc2ecg2PjiDvukCZKMyX5rTBLts")
	assert.Contains(t, out, "Bump:    255")

	out, err = execute(t, "derive", "--mint", "C9cAPKjWG8dsujybrn6LhXnTxAx3Y6Z9HVtrfQ1Cn8Hy")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault:   6Zg3mhXrmVB3knvm4E46JwLTWmAL7V4mDLmLNRQR9sdD")
	assert.Contains(t, out, "Bump:    252")
}

func TestDerive_InvalidMint(t *testing.T) {
	_, err := execute(t, "derive", "--mint", "not-a-key")
	assert.Error(t, err)
}

func TestLoadPayer(t *testing.T) {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)

	raw, err := account.ToKeypairJSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0600))

	require.NoError(t, rootCmd.PersistentFlags().Set("keypair", path))
	defer rootCmd.PersistentFlags().Set("keypair", "~/.config/solana/id.json")

	payer, err := loadPayer()
	require.NoError(t, err)
	assert.True(t, payer.Equals(account))
	assert.NotNil(t, payer.PrivateKey())

	require.NoError(t, rootCmd.PersistentFlags().Set("keypair", filepath.Join(t.TempDir(), "missing.json")))
	_, err = loadPayer()
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := expandHome("~/.config/solana/id.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/solana/id.json"), expanded)

	expanded, err = expandHome("/tmp/id.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/id.json", expanded)
}

func TestDescribeError(t *testing.T) {
	txErr, err := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   solana.CustomError(exchangebooth.InvalidMint),
	})
	require.NoError(t, err)

	described := describeError(txErr)
	assert.Contains(t, described.Error(), "exchange booth error 11 (Invalid mint key)")

	txErr, err = solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   solana.CustomError(exchangebooth.InsufficientFunds),
	})
	require.NoError(t, err)
	assert.Contains(t, describeError(txErr).Error(), "exchange booth error 8 (Insufficient funds)")

	other := errors.New("connection refused")
	assert.Equal(t, other, describeError(other))
}

func TestDecodeSyncConfig(t *testing.T) {
	decoded, err := decodeSyncConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSyncInterval, decoded.Interval)
	assert.Empty(t, decoded.Schedule)
	assert.Nil(t, decoded.pgConfig())

	mints, err := decoded.mintAccounts()
	require.NoError(t, err)
	assert.Empty(t, mints)

	decoded, err = decodeSyncConfig(app.Config{
		"sync_interval": "30s",
		"sync_schedule": "*/5 * * * *",
		"mints":         "kinXdEcpDQeHPEuQnqmUgtYykqKGVFq6CeVX5iAHJq6,EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"database": map[string]interface{}{
			"host":        "localhost",
			"user":        "booth",
			"password":    "secret",
			"name":        "booth",
			"use_aws_iam": true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, decoded.Interval)
	assert.Equal(t, "*/5 * * * *", decoded.Schedule)

	mints, err = decoded.mintAccounts()
	require.NoError(t, err)
	require.Len(t, mints, 2)
	assert.Equal(t, "kinXdEcpDQeHPEuQnqmUgtYykqKGVFq6CeVX5iAHJq6", mints[0].PublicKey().ToBase58())

	pgConfig := decoded.pgConfig()
	require.NotNil(t, pgConfig)
	assert.Equal(t, "localhost", pgConfig.Host)
	assert.Equal(t, 5432, pgConfig.Port)
	assert.Equal(t, "booth", pgConfig.DbName)
	assert.True(t, pgConfig.UseAwsIam)

	decoded, err = decodeSyncConfig(app.Config{"mints": []string{"not-a-key"}})
	require.NoError(t, err)
	_, err = decoded.mintAccounts()
	assert.Error(t, err)

	_, err = decodeSyncConfig(app.Config{"sync_interval": "-1s"})
	assert.Error(t, err)
}
