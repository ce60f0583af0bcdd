// Package postgres is the pgx-backed entity store.
package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smart-international-shipping/internal/domain"
)

var _ domain.Store = (*Store)(nil)

type Store struct {
	DB *pgxpool.Pool
}

const uniqueViolation = "23505"

// validID filters out ids postgres would reject with a cast error. A malformed
// id can never match a row, so callers report it as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// notFound maps pgx.ErrNoRows to the domain error and wraps everything else.
func notFound(err error, op string, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound(format, args...)
	}
	return fmt.Errorf("%s: %w", op, err)
}
