package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/repository"
)

var errNoRows = sql.ErrNoRows

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// duplicate tags unique constraint failures with repository.ErrDuplicate so
// callers never look at driver errors.
func duplicate(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	}
	return err
}
