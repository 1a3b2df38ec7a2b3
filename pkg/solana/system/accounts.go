package system

import (
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana/binary"
)

const (
	RentAccountSize = 17

	// AccountStorageOverhead is the number of bytes charged for every account
	// in addition to its data.
	AccountStorageOverhead = 128

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

var (
	ErrInvalidRentAccountSize = errors.New("invalid rent account size")
)

// Rent is the layout of the rent sysvar account.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L11
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// DefaultRent returns the rent parameters used by the cluster.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// MinimumBalance returns the lamports an account of the given data size must
// hold to be exempt from rent.
func (r Rent) MinimumBalance(size uint64) uint64 {
	bytes := AccountStorageOverhead + size
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether the balance covers the rent exemption for the size.
func (r Rent) IsExempt(lamports, size uint64) bool {
	return lamports >= r.MinimumBalance(size)
}

func (r Rent) Marshal() []byte {
	w := binary.NewWriter(RentAccountSize)
	w.Uint64(r.LamportsPerByteYear)
	w.Uint64(math.Float64bits(r.ExemptionThreshold))
	w.Uint8(r.BurnPercent)
	return w.Bytes()
}

func (r *Rent) Unmarshal(data []byte) error {
	if len(data) != RentAccountSize {
		return ErrInvalidRentAccountSize
	}

	reader := binary.NewReader(data)
	r.LamportsPerByteYear = reader.Uint64()
	r.ExemptionThreshold = math.Float64frombits(reader.Uint64())
	r.BurnPercent = reader.Uint8()
	return nil
}
