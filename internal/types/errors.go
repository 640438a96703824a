package types

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates a project/campaign/merchant reference did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates caller input validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariantViolation indicates a sequence invariant breach surfaced by the validator.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConflict indicates a uniqueness/concurrency conflict.
	ErrConflict = errors.New("conflict")
)

// NotFoundError tags an error as an unresolved reference.
func NotFoundError(msg string) error {
	return errors.Join(ErrNotFound, errors.New(strings.TrimSpace(msg)))
}

// InvalidInputError tags an error as input validation failure.
func InvalidInputError(msg string) error {
	return errors.Join(ErrInvalidInput, errors.New(strings.TrimSpace(msg)))
}

// InvariantError tags an error as a sequence invariant breach.
func InvariantError(msg string) error {
	return errors.Join(ErrInvariantViolation, errors.New(strings.TrimSpace(msg)))
}

// MapError classifies storage failures into the error kinds above. Unknown
// failures pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvariantViolation) || errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return errors.Join(ErrConflict, err)
		case "23503": // foreign_key_violation
			return errors.Join(ErrInvalidInput, err)
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return errors.Join(ErrConflict, err)
	}
	return err
}
