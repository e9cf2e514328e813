package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSlotUnavailable is returned when the target slot is confirmed booked.
// Retrying the same slot will never succeed; the caller must pick another.
var ErrSlotUnavailable = errors.New("slot is no longer available")

// ErrDuplicateParticipant is returned when the participant already holds a
// booking in the same project.
var ErrDuplicateParticipant = errors.New("participant already has a booking in this project")

// ErrStoreUnavailable is returned on timeouts and connection failures.
// Unlike ErrSlotUnavailable it says nothing about the slot's state; the
// caller may retry the same request with backoff.
var ErrStoreUnavailable = errors.New("storage temporarily unavailable")

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure on
// the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// storeErr wraps a low-level pgx error, translating timeouts and dropped
// connections into ErrStoreUnavailable so callers can tell a transient
// failure apart from a definitive answer.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
