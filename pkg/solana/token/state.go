package token

import (
	"crypto/ed25519"

	"github.com/code-payments/exchange-booth/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L31
const MintSize = 82

// Account is the state of a token account.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64

	// DelegatedAmount of the balance may be spent by Delegate, if set.
	Delegate        ed25519.PublicKey
	DelegatedAmount uint64

	State AccountState

	// IsNative is set on wrapped SOL accounts and holds their rent exempt
	// reserve.
	IsNative *uint64

	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	w := binary.NewWriter(AccountSize)
	w.Key(a.Mint)
	w.Key(a.Owner)
	w.Uint64(a.Amount)
	w.OptionalKey(a.Delegate)
	w.Uint8(byte(a.State))
	w.OptionalUint64(a.IsNative)
	w.Uint64(a.DelegatedAmount)
	w.OptionalKey(a.CloseAuthority)
	return w.Bytes()
}

// Unmarshal decodes b, returning false if it is not sized as an account.
func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	r := binary.NewReader(b)
	a.Mint = r.Key()
	a.Owner = r.Key()
	a.Amount = r.Uint64()
	a.Delegate = r.OptionalKey()
	a.State = AccountState(r.Uint8())
	a.IsNative = r.OptionalUint64()
	a.DelegatedAmount = r.Uint64()
	a.CloseAuthority = r.OptionalKey()
	return true
}

// IsInitialized reports whether the account has been initialized, frozen
// accounts included.
func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

// Mint is the state of a token mint. Without a MintAuthority the supply is
// fixed.
type Mint struct {
	MintAuthority   ed25519.PublicKey
	Supply          uint64
	Decimals        byte
	IsInitialized   bool
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	w := binary.NewWriter(MintSize)
	w.OptionalKey(m.MintAuthority)
	w.Uint64(m.Supply)
	w.Uint8(m.Decimals)
	w.Bool(m.IsInitialized)
	w.OptionalKey(m.FreezeAuthority)
	return w.Bytes()
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize {
		return false
	}

	r := binary.NewReader(b)
	m.MintAuthority = r.OptionalKey()
	m.Supply = r.Uint64()
	m.Decimals = r.Uint8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = r.OptionalKey()
	return true
}
