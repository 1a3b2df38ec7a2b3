package vault

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Validate(t *testing.T) {
	valid := func() *Record {
		return &Record{
			Address:   randomKey(t),
			ProgramId: randomKey(t),
			Mint:      randomKey(t),
			Bump:      255,
			Admin:     randomKey(t),
		}
	}
	require.NoError(t, valid().Validate())

	for _, mutate := range []func(r *Record){
		func(r *Record) { r.Address = "" },
		func(r *Record) { r.ProgramId = "" },
		func(r *Record) { r.Mint = "not base58 0OIl" },
		func(r *Record) { r.Admin = base58.Encode([]byte{1, 2, 3}) },
		func(r *Record) { r.Bump = 0 },
	} {
		r := valid()
		mutate(r)
		assert.Error(t, r.Validate())
	}
}

func TestRecord_CloneAndCopy(t *testing.T) {
	expected := &Record{
		Id:            1,
		Address:       randomKey(t),
		ProgramId:     randomKey(t),
		Mint:          randomKey(t),
		Bump:          254,
		Admin:         randomKey(t),
		Lamports:      1_336_320,
		Slot:          42,
		CreatedAt:     time.Now(),
		LastUpdatedAt: time.Now(),
	}

	cloned := expected.Clone()
	assert.Equal(t, *expected, cloned)

	var copied Record
	expected.CopyTo(&copied)
	assert.Equal(t, *expected, copied)

	cloned.Lamports++
	assert.NotEqual(t, expected.Lamports, cloned.Lamports)
}

func randomKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub)
}
