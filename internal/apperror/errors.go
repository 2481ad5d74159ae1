package apperror

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("conflicting reference")
)

// NotFoundError is returned by services when an id-based lookup resolves to nothing.
// Message is safe to show to API clients.
type NotFoundError struct {
	Message string
	cause   error
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.cause}
}

// NotFound builds a NotFoundError that also matches the package-level sentinel cause.
func NotFound(cause error, format string, args ...any) error {
	return &NotFoundError{
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// FromDB turns postgres constraint failures into domain errors; anything else passes through.
func FromDB(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return err
}
