package processor

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana/exchangebooth"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
)

// Processor is the on-ledger exchange booth program.
type Processor struct {
	log *logrus.Entry
}

func New() *Processor {
	return &Processor{
		log: logrus.StandardLogger().WithField("type", "exchangebooth/processor"),
	}
}

// Process decodes an instruction and routes it to its handler. Handler errors
// are returned unchanged.
func (p *Processor) Process(
	ctx context.Context,
	invoker runtime.Invoker,
	programID ed25519.PublicKey,
	accounts []*runtime.AccountInfo,
	data []byte,
) error {
	log := p.log.WithFields(logrus.Fields{
		"program":  base58.Encode(programID),
		"accounts": len(accounts),
		"data":     data,
	})
	log.Debug("processing instruction")

	err := p.process(ctx, invoker, programID, accounts, data)
	if err != nil {
		var boothErr exchangebooth.ExchangeBoothError
		if errors.As(err, &boothErr) {
			log = log.WithField("code", uint32(boothErr))
		}
		log.WithError(err).Info("instruction failed")
	}
	return err
}

func (p *Processor) process(
	ctx context.Context,
	invoker runtime.Invoker,
	programID ed25519.PublicKey,
	accounts []*runtime.AccountInfo,
	data []byte,
) error {
	ix, err := exchangebooth.Decode(data)
	if err != nil {
		return err
	}

	h := &handler{
		log:       p.log.WithField("instruction", ix.Type.String()),
		invoker:   invoker,
		programID: programID,
		accounts:  runtime.NewAccountIterator(accounts),
	}

	switch ix.Type {
	case exchangebooth.InstructionTypeInitialize:
		return h.initialize(ctx)
	case exchangebooth.InstructionTypeExchangeOut:
		return h.exchangeOut(ctx, ix.Amount)
	case exchangebooth.InstructionTypeExchangeIn:
		return h.exchangeIn(ctx, ix.Amount)
	default:
		return exchangebooth.InvalidInstructionData
	}
}

type handler struct {
	log       *logrus.Entry
	invoker   runtime.Invoker
	programID ed25519.PublicKey
	accounts  *runtime.AccountIterator
}
