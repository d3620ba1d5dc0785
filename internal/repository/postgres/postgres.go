// Package postgres implements the repository interfaces on PostgreSQL through sqlx.
// Queries are parameterized and contain no business rules.
package postgres

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/repository"
)

// updateSet renders "a = $1, b = $2" for the given fields in column order,
// followed by updated_at when touch is set. It returns the args in the same
// order; the caller appends the WHERE args after them.
func updateSet(f repository.Fields, touch bool) (string, []any) {
	cols := make([]string, 0, len(f))
	for k := range f {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	parts := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		parts = append(parts, fmt.Sprintf("%s = $%d", c, i+1))
		args = append(args, f[c])
	}
	if touch {
		parts = append(parts, "updated_at = now()")
	}
	return strings.Join(parts, ", "), args
}

// withTx runs fn inside a transaction, committing on success and rolling back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// execOne runs a statement that must affect exactly one row; zero rows maps to sql.ErrNoRows.
func execOne(ctx context.Context, db sqlx.ExecerContext, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoRows
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
