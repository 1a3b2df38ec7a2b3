package query

import (
	"fmt"
	"sort"
)

// PaginateQuery appends id based paging to a query of the form
// "SELECT ... WHERE (...)". The parenthesized where clause is required so
// the cursor condition binds to the whole predicate.
//
//	PaginateQuery("SELECT * FROM t WHERE (a = $1)", []interface{}{1}, ToCursor(5), 10, Ascending)
//	> "SELECT * FROM t WHERE (a = $1) AND id > $2 ORDER BY id ASC LIMIT $3", [1 5 10]
func PaginateQuery(query string, opts []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	comparison, order := ">", "ASC"
	if direction == Descending {
		comparison, order = "<", "DESC"
	}

	if len(cursor) > 0 {
		opts = append(opts, cursor.ToUint64())
		query += fmt.Sprintf(" AND id %s $%d", comparison, len(opts))
	}

	query += " ORDER BY id " + order

	if limit > 0 {
		opts = append(opts, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(opts))
	}

	return query, opts
}

// PaginateSlice applies the same paging rules as PaginateQuery to records
// held in memory. items is not modified.
func PaginateSlice[T any](items []T, id func(T) uint64, cursor Cursor, limit uint64, direction Ordering) []T {
	var res []T
	for _, item := range items {
		switch {
		case len(cursor) == 0:
		case direction == Ascending && id(item) <= cursor.ToUint64():
			continue
		case direction == Descending && id(item) >= cursor.ToUint64():
			continue
		}
		res = append(res, item)
	}

	sort.Slice(res, func(i, j int) bool {
		if direction == Descending {
			return id(res[i]) > id(res[j])
		}
		return id(res[i]) < id(res[j])
	})

	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res
}
