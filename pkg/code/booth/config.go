package booth

import (
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/exchange-booth/pkg/config"
	"github.com/code-payments/exchange-booth/pkg/config/env"
	"github.com/code-payments/exchange-booth/pkg/config/memory"
	"github.com/code-payments/exchange-booth/pkg/config/wrapper"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

const (
	envConfigPrefix = "EXCHANGE_BOOTH_"

	ProgramIdConfigEnvName = envConfigPrefix + "PROGRAM_ID"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 30 * time.Second

	ConfirmationPollIntervalConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_INTERVAL"
	defaultConfirmationPollInterval       = 500 * time.Millisecond

	SubmitRateLimitConfigEnvName = envConfigPrefix + "SUBMIT_RATE_LIMIT"
	defaultSubmitRateLimit       = 5.0

	VaultCacheBudgetConfigEnvName = envConfigPrefix + "VAULT_CACHE_BUDGET"
	defaultVaultCacheBudget       = 10_000

	SyncBatchSizeConfigEnvName = envConfigPrefix + "SYNC_BATCH_SIZE"
	defaultSyncBatchSize       = 100

	SyncConcurrencyConfigEnvName = envConfigPrefix + "SYNC_CONCURRENCY"
	defaultSyncConcurrency       = 4
)

var (
	defaultProgramId = base58.Encode(exchangebooth.PROGRAM_ID)
)

type conf struct {
	programId                config.String
	commitment               config.String
	confirmationTimeout      config.Duration
	confirmationPollInterval config.Duration
	submitRateLimit          config.Float64
	vaultCacheBudget         config.Uint64
	syncBatchSize            config.Uint64
	syncConcurrency          config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			programId:                env.NewStringConfig(ProgramIdConfigEnvName, defaultProgramId),
			commitment:               env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			confirmationTimeout:      env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			confirmationPollInterval: env.NewDurationConfig(ConfirmationPollIntervalConfigEnvName, defaultConfirmationPollInterval),
			submitRateLimit:          env.NewFloat64Config(SubmitRateLimitConfigEnvName, defaultSubmitRateLimit),
			vaultCacheBudget:         env.NewUint64Config(VaultCacheBudgetConfigEnvName, defaultVaultCacheBudget),
			syncBatchSize:            env.NewUint64Config(SyncBatchSizeConfigEnvName, defaultSyncBatchSize),
			syncConcurrency:          env.NewUint64Config(SyncConcurrencyConfigEnvName, defaultSyncConcurrency),
		}
	}
}

// Overrides are explicit config values. Zero values fall back to defaults.
type Overrides struct {
	ProgramId                string
	Commitment               string
	ConfirmationTimeout      time.Duration
	ConfirmationPollInterval time.Duration
	SubmitRateLimit          float64
	VaultCacheBudget         uint64
	SyncBatchSize            uint64
	SyncConcurrency          uint64
}

// WithOverrides returns configuration pulled from in memory values, which is
// how the CLI passes flag values through.
func WithOverrides(overrides *Overrides) ConfigProvider {
	if len(overrides.ProgramId) == 0 {
		overrides.ProgramId = defaultProgramId
	}

	if len(overrides.Commitment) == 0 {
		overrides.Commitment = defaultCommitment
	}

	if overrides.ConfirmationTimeout == 0 {
		overrides.ConfirmationTimeout = defaultConfirmationTimeout
	}

	if overrides.ConfirmationPollInterval == 0 {
		overrides.ConfirmationPollInterval = defaultConfirmationPollInterval
	}

	if overrides.SubmitRateLimit == 0 {
		overrides.SubmitRateLimit = defaultSubmitRateLimit
	}

	if overrides.VaultCacheBudget == 0 {
		overrides.VaultCacheBudget = defaultVaultCacheBudget
	}

	if overrides.SyncBatchSize == 0 {
		overrides.SyncBatchSize = defaultSyncBatchSize
	}

	if overrides.SyncConcurrency == 0 {
		overrides.SyncConcurrency = defaultSyncConcurrency
	}

	return func() *conf {
		return &conf{
			programId:                wrapper.NewStringConfig(memory.NewConfig(overrides.ProgramId), defaultProgramId),
			commitment:               wrapper.NewStringConfig(memory.NewConfig(overrides.Commitment), defaultCommitment),
			confirmationTimeout:      wrapper.NewDurationConfig(memory.NewConfig(overrides.ConfirmationTimeout), defaultConfirmationTimeout),
			confirmationPollInterval: wrapper.NewDurationConfig(memory.NewConfig(overrides.ConfirmationPollInterval), defaultConfirmationPollInterval),
			submitRateLimit:          wrapper.NewFloat64Config(memory.NewConfig(overrides.SubmitRateLimit), defaultSubmitRateLimit),
			vaultCacheBudget:         wrapper.NewUint64Config(memory.NewConfig(overrides.VaultCacheBudget), defaultVaultCacheBudget),
			syncBatchSize:            wrapper.NewUint64Config(memory.NewConfig(overrides.SyncBatchSize), defaultSyncBatchSize),
			syncConcurrency:          wrapper.NewUint64Config(memory.NewConfig(overrides.SyncConcurrency), defaultSyncConcurrency),
		}
	}
}
