package common

import (
	"bytes"
	"crypto/ed25519"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

// Account is a ledger address, optionally with the private key able to sign
// for it.
type Account struct {
	publicKey  *Key
	privateKey *Key
}

func NewAccountFromPublicKey(publicKey *Key) (*Account, error) {
	return newAccount(publicKey, nil)
}

func NewAccountFromPublicKeyBytes(publicKey []byte) (*Account, error) {
	return publicAccount(NewKeyFromBytes(publicKey))
}

func NewAccountFromPublicKeyString(publicKey string) (*Account, error) {
	return publicAccount(NewKeyFromString(publicKey))
}

func NewAccountFromPrivateKey(privateKey *Key) (*Account, error) {
	if privateKey == nil || privateKey.IsPublic() {
		return nil, errors.New("private key isn't private")
	}

	publicKey, err := NewKeyFromBytes(derivePublicKey(privateKey))
	if err != nil {
		return nil, errors.Wrap(err, "error deriving public key")
	}
	return newAccount(publicKey, privateKey)
}

func NewAccountFromPrivateKeyBytes(privateKey []byte) (*Account, error) {
	return privateAccount(NewKeyFromBytes(privateKey))
}

func NewAccountFromPrivateKeyString(privateKey string) (*Account, error) {
	return privateAccount(NewKeyFromString(privateKey))
}

func NewRandomAccount() (*Account, error) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating private key")
	}
	return NewAccountFromPrivateKeyBytes(privateKey)
}

func newAccount(publicKey, privateKey *Key) (*Account, error) {
	account := &Account{publicKey: publicKey, privateKey: privateKey}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

func publicAccount(key *Key, err error) (*Account, error) {
	if err != nil {
		return nil, err
	}
	return NewAccountFromPublicKey(key)
}

func privateAccount(key *Key, err error) (*Account, error) {
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(key)
}

func (a *Account) PublicKey() *Key {
	return a.publicKey
}

// PrivateKey is nil for accounts that cannot sign.
func (a *Account) PrivateKey() *Key {
	return a.privateKey
}

// Signer returns the account's private key for signing transactions.
func (a *Account) Signer() (ed25519.PrivateKey, error) {
	if a.privateKey == nil {
		return nil, errors.New("private key not available")
	}
	return ed25519.PrivateKey(a.privateKey.ToBytes()), nil
}

func (a *Account) Sign(message []byte) ([]byte, error) {
	signer, err := a.Signer()
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(signer, message), nil
}

// IsOnCurve reports whether the address is a valid ed25519 point. Program
// derived addresses never are.
func (a *Account) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(a.publicKey.ToBytes())
	return err == nil
}

func (a *Account) Equals(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.publicKey.Equals(other.publicKey)
}

func (a *Account) Validate() error {
	if a == nil {
		return errors.New("account is nil")
	}

	if err := a.publicKey.Validate(); err != nil {
		return errors.Wrap(err, "error validating public key")
	}
	if !a.publicKey.IsPublic() {
		return errors.New("public key isn't public")
	}

	if a.privateKey == nil {
		return nil
	}

	if err := a.privateKey.Validate(); err != nil {
		return errors.Wrap(err, "error validating private key")
	}
	if a.privateKey.IsPublic() {
		return errors.New("private key isn't private")
	}
	if !bytes.Equal(a.publicKey.ToBytes(), derivePublicKey(a.privateKey)) {
		return errors.New("private key doesn't map to public key")
	}
	return nil
}

func (a *Account) String() string {
	return a.publicKey.ToBase58()
}

func derivePublicKey(privateKey *Key) ed25519.PublicKey {
	return ed25519.PrivateKey(privateKey.ToBytes()).Public().(ed25519.PublicKey)
}
