package exchangebooth

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	VaultAccountSize = (32 + // admin
		32) // vault
)

// VaultAccount is the record stored at a vault address.
type VaultAccount struct {
	Admin ed25519.PublicKey
	Vault ed25519.PublicKey
}

func (obj *VaultAccount) Marshal() []byte {
	var offset int

	data := make([]byte, VaultAccountSize)
	putKey(data, obj.Admin, &offset)
	putKey(data, obj.Vault, &offset)

	return data
}

func (obj *VaultAccount) Unmarshal(data []byte) error {
	if len(data) < VaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	getKey(data, &obj.Admin, &offset)
	getKey(data, &obj.Vault, &offset)

	return nil
}

// IsSelfReferencing reports whether the record names the address it is
// stored at.
func (obj *VaultAccount) IsSelfReferencing(address ed25519.PublicKey) bool {
	return bytes.Equal(obj.Vault, address)
}

func (obj *VaultAccount) String() string {
	return fmt.Sprintf(
		"VaultAccount{admin=%s,vault=%s}",
		base58.Encode(obj.Admin),
		base58.Encode(obj.Vault),
	)
}
