package booth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
)

// ExchangeArgs are the accounts and amount of an exchange against a mint's
// vault. Payer must carry a private key.
type ExchangeArgs struct {
	Payer             *common.Account
	PayerTokenAccount *common.Account
	Mint              *common.Account
	VaultTokenAccount *common.Account
	Amount            uint32
}

func (a *ExchangeArgs) Validate() error {
	if a == nil || a.Payer == nil || a.PayerTokenAccount == nil || a.Mint == nil || a.VaultTokenAccount == nil {
		return errors.New("exchange accounts are required")
	}

	if a.Payer.PrivateKey() == nil {
		return ErrMissingSigner
	}

	if a.PayerTokenAccount.Equals(a.VaultTokenAccount) {
		return errors.New("payer and vault token accounts must be distinct")
	}

	return nil
}

// ExchangeOut pays Amount lamports into the vault and receives
// exchangebooth.TokensForLamports(Amount) tokens from the vault token account.
//
// Program failures can be mapped with exchangebooth.GetError.
func (c *Client) ExchangeOut(ctx context.Context, args *ExchangeArgs) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExchangeOut")
	defer tracer.End()
	traceExchange(tracer, args)

	sig, err := c.exchange(ctx, exchangebooth.InstructionTypeExchangeOut, args)
	tracer.OnError(err)
	return sig, err
}

// ExchangeIn pays Amount tokens into the vault token account and receives
// exchangebooth.LamportsForTokens(Amount) lamports from the vault.
//
// Program failures can be mapped with exchangebooth.GetError.
func (c *Client) ExchangeIn(ctx context.Context, args *ExchangeArgs) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExchangeIn")
	defer tracer.End()
	traceExchange(tracer, args)

	sig, err := c.exchange(ctx, exchangebooth.InstructionTypeExchangeIn, args)
	tracer.OnError(err)
	return sig, err
}

func traceExchange(tracer *metrics.MethodTracer, args *ExchangeArgs) {
	if args == nil || args.Mint == nil {
		return
	}

	tracer.AddAttributes(map[string]interface{}{
		"mint":   args.Mint.PublicKey().ToBase58(),
		"amount": args.Amount,
	})
}

func (c *Client) exchange(ctx context.Context, instructionType exchangebooth.InstructionType, args *ExchangeArgs) (solana.Signature, error) {
	if err := args.Validate(); err != nil {
		return solana.Signature{}, err
	}

	accounts, err := c.GetExchangeBoothAccounts(args.Mint)
	if err != nil {
		return solana.Signature{}, err
	}

	log := c.log.WithFields(logrus.Fields{
		"method":              "exchange",
		"instruction":         instructionType.String(),
		"payer":               args.Payer.PublicKey().ToBase58(),
		"payer_token_account": args.PayerTokenAccount.PublicKey().ToBase58(),
		"mint":                args.Mint.PublicKey().ToBase58(),
		"vault":               accounts.Vault.PublicKey().ToBase58(),
		"vault_token_account": args.VaultTokenAccount.PublicKey().ToBase58(),
		"amount":              args.Amount,
	})

	var ix solana.Instruction
	switch instructionType {
	case exchangebooth.InstructionTypeExchangeOut:
		ix = exchangebooth.NewExchangeOutInstruction(
			accounts.Program.PublicKey().ToBytes(),
			&exchangebooth.ExchangeOutInstructionAccounts{
				Payer:             args.Payer.PublicKey().ToBytes(),
				PayerTokenAccount: args.PayerTokenAccount.PublicKey().ToBytes(),
				Mint:              args.Mint.PublicKey().ToBytes(),
				Vault:             accounts.Vault.PublicKey().ToBytes(),
				VaultTokenAccount: args.VaultTokenAccount.PublicKey().ToBytes(),
			},
			&exchangebooth.ExchangeOutInstructionArgs{
				Amount: args.Amount,
			},
		)
	case exchangebooth.InstructionTypeExchangeIn:
		ix = exchangebooth.NewExchangeInInstruction(
			accounts.Program.PublicKey().ToBytes(),
			&exchangebooth.ExchangeInInstructionAccounts{
				Payer:             args.Payer.PublicKey().ToBytes(),
				PayerTokenAccount: args.PayerTokenAccount.PublicKey().ToBytes(),
				Mint:              args.Mint.PublicKey().ToBytes(),
				Vault:             accounts.Vault.PublicKey().ToBytes(),
				VaultTokenAccount: args.VaultTokenAccount.PublicKey().ToBytes(),
			},
			&exchangebooth.ExchangeInInstructionArgs{
				Amount: args.Amount,
			},
		)
	default:
		return solana.Signature{}, errors.Errorf("unsupported instruction type: %s", instructionType)
	}

	sig, err := c.submit(ctx, args.Payer, ix)
	if err != nil {
		if code, ok := exchangebooth.GetError(err); ok {
			log = log.WithField("code", uint32(code))
		}
		log.WithError(err).Info("failure exchanging")
		recordExchangeEvent(ctx, instructionType, args, false)
		return sig, err
	}

	log.WithField("signature", sig.ToBase58()).Debug("exchange confirmed")
	recordExchangeEvent(ctx, instructionType, args, true)
	return sig, nil
}
