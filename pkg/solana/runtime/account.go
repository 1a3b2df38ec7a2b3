package runtime

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Account is the ledger state stored at an address.
type Account struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	cloned := &Account{
		Owner:      make([]byte, len(a.Owner)),
		Lamports:   a.Lamports,
		Data:       make([]byte, len(a.Data)),
		Executable: a.Executable,
	}
	copy(cloned.Owner, a.Owner)
	copy(cloned.Data, a.Data)
	return cloned
}

// CopyTo overwrites dst with the state of a, keeping dst's identity.
func (a *Account) CopyTo(dst *Account) {
	dst.Owner = make([]byte, len(a.Owner))
	copy(dst.Owner, a.Owner)
	dst.Lamports = a.Lamports
	dst.Data = make([]byte, len(a.Data))
	copy(dst.Data, a.Data)
	dst.Executable = a.Executable
}

func (a *Account) Equals(other *Account) bool {
	return bytes.Equal(a.Owner, other.Owner) &&
		a.Lamports == other.Lamports &&
		bytes.Equal(a.Data, other.Data) &&
		a.Executable == other.Executable
}

// IsOwnedBy reports whether program owns the account.
func (a *Account) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

func (a *Account) String() string {
	return fmt.Sprintf(
		"Account{owner=%s,lamports=%d,data_len=%d,executable=%v}",
		base58.Encode(a.Owner),
		a.Lamports,
		len(a.Data),
		a.Executable,
	)
}

// AccountInfo is an account as seen by a program during an instruction. The
// embedded Account is shared with the runtime, so writes are observed by
// later instructions and invocations.
type AccountInfo struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	*Account
}

// AccountIterator walks the accounts of an instruction in order.
type AccountIterator struct {
	accounts []*AccountInfo
	index    int
}

func NewAccountIterator(accounts []*AccountInfo) *AccountIterator {
	return &AccountIterator{
		accounts: accounts,
	}
}

// Next returns the next account, or ErrNotEnoughAccountKeys when the
// instruction carries no more accounts.
func (i *AccountIterator) Next() (*AccountInfo, error) {
	if i.index >= len(i.accounts) {
		return nil, ErrNotEnoughAccountKeys
	}

	account := i.accounts[i.index]
	i.index++
	return account, nil
}

// Remaining returns the accounts not yet consumed.
func (i *AccountIterator) Remaining() []*AccountInfo {
	return i.accounts[i.index:]
}
