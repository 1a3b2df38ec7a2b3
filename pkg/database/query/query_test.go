package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	cursor := ToCursor(1234)
	assert.EqualValues(t, 1234, cursor.ToUint64())

	parsed, err := CursorFromBase58(cursor.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, cursor, parsed)

	parsed, err = CursorFromBase58("")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = CursorFromBase58("0OIl")
	assert.Error(t, err)

	_, err = CursorFromBase58("2")
	assert.Error(t, err)
}

func TestOrdering(t *testing.T) {
	for _, ordering := range []Ordering{Ascending, Descending} {
		parsed, err := ToOrdering(ordering.String())
		require.NoError(t, err)
		assert.Equal(t, ordering, parsed)
	}

	_, err := ToOrdering("sideways")
	assert.Error(t, err)
}

func TestPaginateQuery(t *testing.T) {
	for _, tc := range []struct {
		cursor    Cursor
		limit     uint64
		direction Ordering
		expected  string
		args      []interface{}
	}{
		{
			cursor:    EmptyCursor,
			direction: Ascending,
			expected:  "SELECT * FROM t WHERE (admin = $1) ORDER BY id ASC",
			args:      []interface{}{"admin"},
		},
		{
			cursor:    ToCursor(10),
			limit:     5,
			direction: Ascending,
			expected:  "SELECT * FROM t WHERE (admin = $1) AND id > $2 ORDER BY id ASC LIMIT $3",
			args:      []interface{}{"admin", uint64(10), uint64(5)},
		},
		{
			cursor:    ToCursor(10),
			limit:     5,
			direction: Descending,
			expected:  "SELECT * FROM t WHERE (admin = $1) AND id < $2 ORDER BY id DESC LIMIT $3",
			args:      []interface{}{"admin", uint64(10), uint64(5)},
		},
	} {
		query, args := PaginateQuery("SELECT * FROM t WHERE (admin = $1)", []interface{}{"admin"}, tc.cursor, tc.limit, tc.direction)
		assert.Equal(t, tc.expected, query)
		assert.Equal(t, tc.args, args)
	}
}

func TestPaginateSlice(t *testing.T) {
	items := []uint64{4, 1, 3, 5, 2}
	id := func(v uint64) uint64 { return v }

	for _, tc := range []struct {
		cursor    Cursor
		limit     uint64
		direction Ordering
		expected  []uint64
	}{
		{EmptyCursor, 0, Ascending, []uint64{1, 2, 3, 4, 5}},
		{EmptyCursor, 0, Descending, []uint64{5, 4, 3, 2, 1}},
		{EmptyCursor, 2, Ascending, []uint64{1, 2}},
		{ToCursor(2), 2, Ascending, []uint64{3, 4}},
		{ToCursor(4), 0, Descending, []uint64{3, 2, 1}},
		{ToCursor(5), 0, Ascending, nil},
	} {
		assert.Equal(t, tc.expected, PaginateSlice(items, id, tc.cursor, tc.limit, tc.direction))
	}
	assert.Equal(t, []uint64{4, 1, 3, 5, 2}, items)
}
