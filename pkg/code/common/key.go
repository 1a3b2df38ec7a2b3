package common

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Key is an ed25519 public or private key along with its base58 encoding.
type Key struct {
	raw     []byte
	encoded string
}

func NewKeyFromBytes(value []byte) (*Key, error) {
	return newKey(value, base58.Encode(value))
}

func NewKeyFromString(value string) (*Key, error) {
	raw, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding string as base58")
	}
	return newKey(raw, value)
}

func newKey(raw []byte, encoded string) (*Key, error) {
	k := &Key{raw: raw, encoded: encoded}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Key) ToBytes() []byte {
	return k.raw
}

func (k *Key) ToBase58() string {
	return k.encoded
}

func (k *Key) Equals(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return bytes.Equal(k.raw, other.raw)
}

// IsPublic reports whether the key is sized as a public key.
func (k *Key) IsPublic() bool {
	return len(k.raw) == ed25519.PublicKeySize
}

func (k *Key) Validate() error {
	if k == nil {
		return errors.New("key is nil")
	}

	switch len(k.raw) {
	case ed25519.PublicKeySize, ed25519.PrivateKeySize:
	default:
		return errors.Errorf("invalid key length %d", len(k.raw))
	}

	if base58.Encode(k.raw) != k.encoded {
		return errors.New("bytes and string representation don't match")
	}
	return nil
}
