package vault

import (
	"errors"
	"time"

	"github.com/mr-tron/base58/base58"
)

var (
	ErrVaultNotFound   = errors.New("no vault records could be found")
	ErrStaleVaultState = errors.New("vault state is older than the stored state")
	ErrInvalidVault    = errors.New("invalid vault record")
)

// Record is the off-chain view of an exchange booth vault account as of
// a ledger slot.
type Record struct {
	Id uint64

	Address   string
	ProgramId string
	Mint      string
	Bump      uint8

	Admin    string
	Lamports uint64

	Slot uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	for _, key := range []struct {
		name  string
		value string
	}{
		{"address", r.Address},
		{"program id", r.ProgramId},
		{"mint", r.Mint},
		{"admin", r.Admin},
	} {
		if len(key.value) == 0 {
			return errors.New(key.name + " is required")
		}

		decoded, err := base58.Decode(key.value)
		if err != nil || len(decoded) != 32 {
			return errors.New(key.name + " is not a valid public key")
		}
	}

	if r.Bump == 0 {
		return errors.New("bump is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id:            r.Id,
		Address:       r.Address,
		ProgramId:     r.ProgramId,
		Mint:          r.Mint,
		Bump:          r.Bump,
		Admin:         r.Admin,
		Lamports:      r.Lamports,
		Slot:          r.Slot,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Address = r.Address
	dst.ProgramId = r.ProgramId
	dst.Mint = r.Mint
	dst.Bump = r.Bump
	dst.Admin = r.Admin
	dst.Lamports = r.Lamports
	dst.Slot = r.Slot
	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
