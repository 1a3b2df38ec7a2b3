package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidPublicKey is returned when seeds hash to a point on the curve.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrNoValidProgramAddress is returned when no bump seed in [1, 255]
	// produces an off-curve address.
	ErrNoValidProgramAddress = errors.New("unable to find a viable program address bump seed")
)

var newHash = sha256.New

// CreateProgramAddress derives the address sha256(seeds || program ||
// "ProgramDerivedAddress"). Addresses that land on the ed25519 curve could
// have a private key, so they are rejected with ErrInvalidPublicKey.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := newHash()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))

	var address [ed25519.PublicKeySize]byte
	copy(address[:], h.Sum(nil))

	if isOnCurve(&address) {
		return nil, ErrInvalidPublicKey
	}
	return address[:], nil
}

// FindProgramAddressAndBump searches bump seeds from 255 down to 1 and
// returns the first off-curve address along with its bump. The address is
// reproduced by CreateProgramAddress(program, append(seeds, []byte{bump})...).
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), nil)

	for bump := math.MaxUint8; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}

		address, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return address, uint8(bump), nil
		case ErrInvalidPublicKey:
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoValidProgramAddress
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	address, _, err := FindProgramAddressAndBump(program, seeds...)
	return address, err
}

// isOnCurve reports whether b decompresses to a valid point. The standard
// library keeps its group element type internal.
func isOnCurve(b *[ed25519.PublicKeySize]byte) bool {
	var point edwards25519.ExtendedGroupElement
	return point.FromBytes(b)
}
