package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

// now is the clock used for every stored timestamp. Values are truncated
// to seconds because MySQL DATETIME has no fractional part by default.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

// setList accumulates "col = ?" fragments for a partial UPDATE.
type setList struct {
	parts []string
	args  []any
}

func (s *setList) add(expr string, args ...any) {
	s.parts = append(s.parts, expr)
	s.args = append(s.args, args...)
}

func (s *setList) String() string { return strings.Join(s.parts, ", ") }

// exists reports whether table has a row with the given id. table is
// always a constant from this package.
func exists(ctx context.Context, q sqlx.QueryerContext, table string, id uint64) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// pageArgs appends LIMIT/OFFSET arguments; they are always bound.
func pageArgs(p model.Page, args ...any) []any {
	return append(args, p.Limit, p.Offset())
}

type countRow struct {
	Key string `db:"k"`
	N   int64  `db:"n"`
}

// groupCounts runs a "SELECT x AS k, COUNT(*) AS n ... GROUP BY x" query and
// merges the result over keys, which are pre-filled with zero.
func groupCounts(ctx context.Context, db *sqlx.DB, query string, keys ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[k] = 0
	}
	var rows []countRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Key] = r.N
	}
	return out, nil
}
