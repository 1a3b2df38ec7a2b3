package booth

import (
	"context"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

// GetTokenAccount returns the state of a token account for mint, such as a
// vault's or payer's token account ahead of an exchange.
//
// Returns token.ErrAccountNotFound or token.ErrInvalidTokenAccount when the
// account does not hold mint.
func (c *Client) GetTokenAccount(ctx context.Context, mint, account *common.Account) (*token.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetTokenAccount")
	defer tracer.End()

	tokenAccount, err := token.NewClient(c.sc, mint.PublicKey().ToBytes()).GetAccount(account.PublicKey().ToBytes(), c.commitment)
	tracer.OnError(err)
	return tokenAccount, err
}

// GetMint returns the state of mint.
func (c *Client) GetMint(ctx context.Context, mint *common.Account) (*token.Mint, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetMint")
	defer tracer.End()

	state, err := token.NewClient(c.sc, mint.PublicKey().ToBytes()).GetMint(c.commitment)
	tracer.OnError(err)
	return state, err
}
