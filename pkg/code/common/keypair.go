package common

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// NewAccountFromKeypairFile loads an account from a keypair file in the
// Solana CLI format: a JSON array of the 64 private key bytes.
func NewAccountFromKeypairFile(path string) (*Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading keypair file %s", path)
	}

	return NewAccountFromKeypairJSON(raw)
}

func NewAccountFromKeypairJSON(raw []byte) (*Account, error) {
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, errors.Wrap(err, "keypair is not a json array")
	}

	values := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("keypair byte %d out of range: %d", i, v)
		}
		values[i] = byte(v)
	}

	return NewAccountFromPrivateKeyBytes(values)
}

// ToKeypairJSON encodes the account's private key in the Solana CLI keypair
// format.
func (a *Account) ToKeypairJSON() ([]byte, error) {
	signer, err := a.Signer()
	if err != nil {
		return nil, err
	}

	ints := make([]int, len(signer))
	for i, b := range signer {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
