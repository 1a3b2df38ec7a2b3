package booth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/solana"
)

// GetBalance returns the lamport balance of account. Accounts that do not
// exist have a zero balance.
func (c *Client) GetBalance(ctx context.Context, account *common.Account) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetBalance")
	defer tracer.End()

	balance, err := c.sc.GetBalance(account.PublicKey().ToBytes(), c.commitment)
	if err != nil {
		tracer.OnError(err)
		return 0, errors.Wrap(err, "error getting balance")
	}
	return balance, nil
}

// RequestAirdrop funds account with lamports on clusters that support it,
// and waits for the airdrop to reach the configured commitment.
func (c *Client) RequestAirdrop(ctx context.Context, account *common.Account, lamports uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RequestAirdrop")
	defer tracer.End()

	sig, err := c.sc.RequestAirdrop(account.PublicKey().ToBytes(), lamports, c.commitment)
	if err != nil {
		tracer.OnError(err)
		return sig, errors.Wrap(err, "error requesting airdrop")
	}

	if _, err := c.WaitForConfirmation(ctx, sig); err != nil {
		tracer.OnError(err)
		return sig, errors.Wrap(err, "error confirming airdrop")
	}
	return sig, nil
}
