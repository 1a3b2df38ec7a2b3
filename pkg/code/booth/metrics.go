package booth

import (
	"context"
	"time"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

const (
	exchangeEventName         = "ExchangeBoothExchange"
	vaultInitializedEventName = "ExchangeBoothVaultInitialized"
	vaultSyncedEventName      = "ExchangeBoothVaultSynced"

	submitDurationMetricName = "ExchangeBooth/submit_duration"
	rateLimitedMetricName    = "ExchangeBooth/rate_limited"
	syncedVaultsMetricName   = "ExchangeBooth/synced_vaults"
)

func recordExchangeEvent(ctx context.Context, instructionType exchangebooth.InstructionType, args *ExchangeArgs, success bool) {
	var lamports, tokens uint64
	switch instructionType {
	case exchangebooth.InstructionTypeExchangeOut:
		lamports = uint64(args.Amount)
		tokens = exchangebooth.TokensForLamports(args.Amount)
	case exchangebooth.InstructionTypeExchangeIn:
		lamports = exchangebooth.LamportsForTokens(args.Amount)
		tokens = uint64(args.Amount)
	}

	metrics.RecordEvent(ctx, exchangeEventName, map[string]interface{}{
		"instruction": instructionType.String(),
		"mint":        args.Mint.PublicKey().ToBase58(),
		"payer":       args.Payer.PublicKey().ToBase58(),
		"amount":      args.Amount,
		"lamports":    lamports,
		"tokens":      tokens,
		"success":     success,
	})
}

func recordVaultInitializedEvent(ctx context.Context, accounts *common.ExchangeBoothAccounts) {
	metrics.RecordEvent(ctx, vaultInitializedEventName, map[string]interface{}{
		"program": accounts.Program.PublicKey().ToBase58(),
		"mint":    accounts.Mint.PublicKey().ToBase58(),
		"vault":   accounts.Vault.PublicKey().ToBase58(),
	})
}

func recordVaultSyncedEvent(ctx context.Context, record *vault.Record) {
	metrics.RecordEvent(ctx, vaultSyncedEventName, map[string]interface{}{
		"mint":     record.Mint,
		"vault":    record.Address,
		"lamports": record.Lamports,
		"slot":     record.Slot,
	})
}

func recordSubmitDuration(ctx context.Context, duration time.Duration) {
	metrics.RecordDuration(ctx, submitDurationMetricName, duration)
}

func recordRateLimitedCount(ctx context.Context) {
	metrics.RecordCount(ctx, rateLimitedMetricName, 1)
}

func recordSyncedVaultsCount(ctx context.Context, count uint64) {
	metrics.RecordCount(ctx, syncedVaultsMetricName, count)
}
