package bank

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/runtime"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
	"github.com/code-payments/exchange-booth/pkg/solana/token"
)

const (
	DefaultLamportsPerSignature = 5000

	// MaxInvokeDepth is the deepest an instruction may nest, counting the
	// top level instruction.
	MaxInvokeDepth = 4

	// Blockhashes older than this many slots are rejected.
	maxRecentBlockhashes = 150
)

type Option func(b *Bank)

func WithRent(rent system.Rent) Option {
	return func(b *Bank) {
		b.rent = rent
	}
}

func WithLamportsPerSignature(lamports uint64) Option {
	return func(b *Bank) {
		b.lamportsPerSignature = lamports
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(b *Bank) {
		b.clock = clock
	}
}

// Bank is an in-memory ledger. It executes legacy transactions against the
// native system and token programs plus any registered programs, one
// transaction at a time.
type Bank struct {
	log *logrus.Entry

	rent                 system.Rent
	lamportsPerSignature uint64
	clock                clockwork.Clock

	mu          sync.RWMutex
	slot        uint64
	blockhashes []solana.Blockhash
	accounts    map[string]*runtime.Account
	programs    map[string]runtime.Program
	statuses    map[solana.Signature]*solana.SignatureStatus
	airdrops    uint64
}

func New(opts ...Option) *Bank {
	b := &Bank{
		log:                  logrus.StandardLogger().WithField("type", "solana/bank"),
		rent:                 system.DefaultRent(),
		lamportsPerSignature: DefaultLamportsPerSignature,
		clock:                clockwork.NewRealClock(),
		accounts:             make(map[string]*runtime.Account),
		programs:             make(map[string]runtime.Program),
		statuses:             make(map[solana.Signature]*solana.SignatureStatus),
	}

	for _, o := range opts {
		o(b)
	}

	b.registerProgram(system.ProgramKey[:], newSystemProgram())
	b.registerProgram(token.ProgramKey, newTokenProgram())
	b.accounts[string(system.RentSysVar)] = &runtime.Account{
		Owner:    system.SystemAccount,
		Lamports: 1,
		Data:     b.rent.Marshal(),
	}

	b.advanceSlot()

	return b
}

// RegisterProgram deploys a program at id.
func (b *Bank) RegisterProgram(id ed25519.PublicKey, program runtime.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.registerProgram(id, program)
}

func (b *Bank) registerProgram(id ed25519.PublicKey, program runtime.Program) {
	b.programs[string(id)] = program
	b.accounts[string(id)] = &runtime.Account{
		Owner:      system.SystemAccount,
		Lamports:   1,
		Executable: true,
	}

	b.log.WithField("program", base58.Encode(id)).Debug("program registered")
}

// SetAccount overwrites the state stored at key. A nil account removes it.
func (b *Bank) SetAccount(key ed25519.PublicKey, account *runtime.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account == nil {
		delete(b.accounts, string(key))
		return
	}
	b.accounts[string(key)] = account.Clone()
}

// GetAccount returns a copy of the state stored at key.
func (b *Bank) GetAccount(key ed25519.PublicKey) (*runtime.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	account, ok := b.accounts[string(key)]
	if !ok {
		return nil, false
	}
	return account.Clone(), true
}

func (b *Bank) Rent() system.Rent {
	return b.rent
}

func (b *Bank) LamportsPerSignature() uint64 {
	return b.lamportsPerSignature
}

// Slot returns the current slot.
func (b *Bank) Slot() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.slot
}

// advanceSlot moves to the next slot and produces its blockhash. The caller
// must hold the write lock, or be the constructor.
func (b *Bank) advanceSlot() {
	var previous solana.Blockhash
	if len(b.blockhashes) > 0 {
		previous = b.blockhashes[len(b.blockhashes)-1]
	}

	b.slot++

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b.clock.Now().UnixNano()))

	h := sha256.New()
	h.Write(previous[:])
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], b.slot)
	h.Write(buf[:])

	var next solana.Blockhash
	copy(next[:], h.Sum(nil))

	b.blockhashes = append(b.blockhashes, next)
	if len(b.blockhashes) > maxRecentBlockhashes {
		b.blockhashes = b.blockhashes[len(b.blockhashes)-maxRecentBlockhashes:]
	}
}

func (b *Bank) isRecentBlockhash(hash solana.Blockhash) bool {
	for _, recent := range b.blockhashes {
		if recent == hash {
			return true
		}
	}
	return false
}

func (b *Bank) latestBlockhash() solana.Blockhash {
	return b.blockhashes[len(b.blockhashes)-1]
}
