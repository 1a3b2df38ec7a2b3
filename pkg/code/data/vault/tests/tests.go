package tests

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/database/query"
)

func RunTests(t *testing.T, s vault.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s vault.Store){
		testRoundTrip,
		testUpdate,
		testStaleUpdate,
		testInvalidRecord,
		testGetAllByAdmin,
		testGetAll,
		testGetCount,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s vault.Store) {
	ctx := context.Background()

	expected := newTestRecord(t, randomKey(t))

	actual, err := s.GetByAddress(ctx, expected.Address)
	assert.Equal(t, vault.ErrVaultNotFound, err)
	assert.Nil(t, actual)

	actual, err = s.GetByMint(ctx, expected.ProgramId, expected.Mint)
	assert.Equal(t, vault.ErrVaultNotFound, err)
	assert.Nil(t, actual)

	cloned := expected.Clone()
	require.NoError(t, s.Save(ctx, expected))
	assert.EqualValues(t, 1, expected.Id)
	assert.False(t, expected.LastUpdatedAt.IsZero())

	actual, err = s.GetByAddress(ctx, cloned.Address)
	require.NoError(t, err)
	assertEquivalentRecords(t, &cloned, actual)
	assert.EqualValues(t, 1, actual.Id)

	actual, err = s.GetByMint(ctx, cloned.ProgramId, cloned.Mint)
	require.NoError(t, err)
	assertEquivalentRecords(t, &cloned, actual)

	_, err = s.GetByMint(ctx, randomKey(t), cloned.Mint)
	assert.Equal(t, vault.ErrVaultNotFound, err)
}

func testUpdate(t *testing.T, s vault.Store) {
	ctx := context.Background()

	expected := newTestRecord(t, randomKey(t))
	require.NoError(t, s.Save(ctx, expected))
	assert.EqualValues(t, 1, expected.Id)

	expected.Lamports += 1_000
	expected.Slot += 1
	require.NoError(t, s.Save(ctx, expected))

	actual, err := s.GetByAddress(ctx, expected.Address)
	require.NoError(t, err)
	assertEquivalentRecords(t, expected, actual)
	assert.EqualValues(t, 1, actual.Id)

	// Same slot updates are accepted
	expected.Lamports += 1_000
	require.NoError(t, s.Save(ctx, expected))

	actual, err = s.GetByAddress(ctx, expected.Address)
	require.NoError(t, err)
	assert.Equal(t, expected.Lamports, actual.Lamports)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func testStaleUpdate(t *testing.T, s vault.Store) {
	ctx := context.Background()

	expected := newTestRecord(t, randomKey(t))
	require.NoError(t, s.Save(ctx, expected))

	stale := expected.Clone()
	stale.Slot -= 1
	stale.Lamports = 0
	assert.Equal(t, vault.ErrStaleVaultState, s.Save(ctx, &stale))

	actual, err := s.GetByAddress(ctx, expected.Address)
	require.NoError(t, err)
	assert.Equal(t, expected.Lamports, actual.Lamports)
	assert.Equal(t, expected.Slot, actual.Slot)
}

func testInvalidRecord(t *testing.T, s vault.Store) {
	ctx := context.Background()

	record := newTestRecord(t, randomKey(t))
	record.Mint = ""
	assert.Error(t, s.Save(ctx, record))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func testGetAllByAdmin(t *testing.T, s vault.Store) {
	ctx := context.Background()

	admin, other := randomKey(t), randomKey(t)
	for _, a := range []string{other, admin, admin, other, admin} {
		require.NoError(t, s.Save(ctx, newTestRecord(t, a)))
	}

	_, err := s.GetAllByAdmin(ctx, randomKey(t), query.EmptyCursor, 10, query.Ascending)
	assert.Equal(t, vault.ErrVaultNotFound, err)

	actual, err := s.GetAllByAdmin(ctx, admin, query.EmptyCursor, 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 3)
	assert.EqualValues(t, 2, actual[0].Id)
	assert.EqualValues(t, 3, actual[1].Id)
	assert.EqualValues(t, 5, actual[2].Id)

	actual, err = s.GetAllByAdmin(ctx, admin, query.EmptyCursor, 10, query.Descending)
	require.NoError(t, err)
	require.Len(t, actual, 3)
	assert.EqualValues(t, 5, actual[0].Id)
	assert.EqualValues(t, 2, actual[2].Id)

	actual, err = s.GetAllByAdmin(ctx, admin, query.EmptyCursor, 2, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.EqualValues(t, 3, actual[1].Id)

	actual, err = s.GetAllByAdmin(ctx, admin, query.ToCursor(2), 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.EqualValues(t, 3, actual[0].Id)

	actual, err = s.GetAllByAdmin(ctx, admin, query.ToCursor(5), 10, query.Descending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.EqualValues(t, 3, actual[0].Id)

	_, err = s.GetAllByAdmin(ctx, admin, query.ToCursor(5), 10, query.Ascending)
	assert.Equal(t, vault.ErrVaultNotFound, err)
}

func testGetAll(t *testing.T, s vault.Store) {
	ctx := context.Background()

	_, err := s.GetAll(ctx, query.EmptyCursor, 10, query.Ascending)
	assert.Equal(t, vault.ErrVaultNotFound, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Save(ctx, newTestRecord(t, randomKey(t))))
	}

	actual, err := s.GetAll(ctx, query.EmptyCursor, 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 4)
	for i, record := range actual {
		assert.EqualValues(t, i+1, record.Id)
	}

	actual, err = s.GetAll(ctx, query.ToCursor(2), 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.EqualValues(t, 3, actual[0].Id)

	actual, err = s.GetAll(ctx, query.EmptyCursor, 3, query.Descending)
	require.NoError(t, err)
	require.Len(t, actual, 3)
	assert.EqualValues(t, 4, actual[0].Id)
	assert.EqualValues(t, 2, actual[2].Id)

	_, err = s.GetAll(ctx, query.ToCursor(4), 10, query.Ascending)
	assert.Equal(t, vault.ErrVaultNotFound, err)
}

func testGetCount(t *testing.T, s vault.Store) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, i, count)

		require.NoError(t, s.Save(ctx, newTestRecord(t, randomKey(t))))
	}
}

func newTestRecord(t *testing.T, admin string) *vault.Record {
	return &vault.Record{
		Address:   randomKey(t),
		ProgramId: randomKey(t),
		Mint:      randomKey(t),
		Bump:      255,
		Admin:     admin,
		Lamports:  1_336_320,
		Slot:      100,
		CreatedAt: time.Now(),
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *vault.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.ProgramId, obj2.ProgramId)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.Admin, obj2.Admin)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, obj1.Slot, obj2.Slot)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
}

func randomKey(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub)
}
