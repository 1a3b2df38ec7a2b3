package booth

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/cache"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/rate"
	"github.com/code-payments/exchange-booth/pkg/solana"
	sync_util "github.com/code-payments/exchange-booth/pkg/sync"
)

const (
	metricsStructName = "booth.client"

	mintLockStripes = 64
)

var (
	ErrVaultAlreadyExists  = errors.New("vault already exists")
	ErrVaultNotInitialized = errors.New("vault is not initialized")
	ErrInvalidVaultState   = errors.New("vault account state is invalid")
	ErrRateLimited         = errors.New("payer is rate limited")
	ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")
	ErrMissingSigner       = errors.New("account is missing a private key")
)

// Client drives the exchange booth program over a Solana RPC endpoint and
// keeps an off-chain index of the vaults it observes.
type Client struct {
	log  *logrus.Entry
	conf *conf

	sc     solana.Client
	vaults vault.Store

	program    *common.Account
	commitment solana.Commitment

	// todo: distributed lock
	mintLocks *sync_util.StripedLock
	limiter   rate.Limiter
	accounts  cache.Cache[string, *common.ExchangeBoothAccounts]
}

// NewClient returns a booth client for the configured program.
func NewClient(sc solana.Client, vaults vault.Store, configProvider ConfigProvider) (*Client, error) {
	ctx := context.Background()
	conf := configProvider()

	program, err := common.NewAccountFromPublicKeyString(conf.programId.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid program id")
	}

	commitment, err := parseCommitment(conf.commitment.Get(ctx))
	if err != nil {
		return nil, err
	}

	return &Client{
		log:  logrus.StandardLogger().WithField("type", "booth/client"),
		conf: conf,

		sc:     sc,
		vaults: vaults,

		program:    program,
		commitment: commitment,

		mintLocks: sync_util.NewStripedLock(mintLockStripes),
		limiter:   rate.New(conf.submitRateLimit.Get(ctx)),
		accounts:  cache.NewCache[string, *common.ExchangeBoothAccounts](int(conf.vaultCacheBudget.Get(ctx))),
	}, nil
}

// Program returns the exchange booth program the client targets.
func (c *Client) Program() *common.Account {
	return c.program
}

// GetExchangeBoothAccounts returns the derived vault accounts for mint.
func (c *Client) GetExchangeBoothAccounts(mint *common.Account) (*common.ExchangeBoothAccounts, error) {
	key := mint.PublicKey().ToBase58()

	if cached, ok := c.accounts.Retrieve(key); ok {
		return cached, nil
	}

	accounts, err := common.GetExchangeBoothAccounts(c.program, mint)
	if err != nil {
		return nil, err
	}

	if err := c.accounts.Insert(key, accounts, 1); err != nil {
		c.log.WithError(err).WithField("mint", key).Debug("failure caching exchange booth accounts")
	}
	return accounts, nil
}

// WaitForConfirmation polls the signature until it reaches the configured
// commitment. A transaction that failed on the ledger is returned as its
// *solana.TransactionError.
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "WaitForConfirmation")
	defer tracer.End()

	timeout := c.conf.confirmationTimeout.Get(ctx)
	interval := c.conf.confirmationPollInterval.Get(ctx)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.sc.GetSignatureStatus(sig, c.commitment)
		switch err {
		case nil:
			if status.ErrorResult != nil {
				tracer.OnError(status.ErrorResult)
				return status, status.ErrorResult
			}

			if hasReachedCommitment(status, c.commitment) {
				return status, nil
			}
		case solana.ErrSignatureNotFound:
		default:
			c.log.WithError(err).WithField("signature", sig.ToBase58()).Debug("failure getting signature status")
		}

		select {
		case <-ctx.Done():
			tracer.OnError(ErrConfirmationTimeout)
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

// submit signs the instructions with payer, submits them and waits for
// confirmation.
func (c *Client) submit(ctx context.Context, payer *common.Account, instructions ...solana.Instruction) (solana.Signature, error) {
	signer, err := payer.Signer()
	if err != nil {
		return solana.Signature{}, ErrMissingSigner
	}

	allowed, err := c.limiter.Allow(payer.PublicKey().ToBase58())
	if err != nil {
		c.log.WithError(err).Warn("failure checking payer rate limit")
	} else if !allowed {
		recordRateLimitedCount(ctx)
		return solana.Signature{}, ErrRateLimited
	}

	blockhash, err := c.sc.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error getting latest blockhash")
	}

	txn := solana.NewTransaction(signer.Public().(ed25519.PublicKey), instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(signer); err != nil {
		return solana.Signature{}, errors.Wrap(err, "error signing transaction")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":    "submit",
		"payer":     payer.PublicKey().ToBase58(),
		"signature": base58.Encode(txn.Signature()),
	})

	start := time.Now()
	sig, err := c.sc.SubmitTransaction(txn, c.commitment)
	if err != nil {
		log.WithError(err).Info("transaction rejected")
		return sig, errors.Wrap(err, "error submitting transaction")
	}

	if _, err := c.WaitForConfirmation(ctx, sig); err != nil {
		log.WithError(err).Info("transaction not confirmed")
		return sig, errors.Wrap(err, "error confirming transaction")
	}
	recordSubmitDuration(ctx, time.Since(start))

	log.Debug("transaction confirmed")
	return sig, nil
}

func parseCommitment(value string) (solana.Commitment, error) {
	for _, commitment := range []solana.Commitment{
		solana.CommitmentProcessed,
		solana.CommitmentConfirmed,
		solana.CommitmentFinalized,
	} {
		if commitment.Commitment == value {
			return commitment, nil
		}
	}
	return solana.Commitment{}, errors.Errorf("invalid commitment: %s", value)
}

func hasReachedCommitment(status *solana.SignatureStatus, commitment solana.Commitment) bool {
	switch commitment {
	case solana.CommitmentFinalized:
		return status.Finalized()
	case solana.CommitmentConfirmed:
		return status.Confirmed()
	default:
		return true
	}
}
