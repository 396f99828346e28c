package pgerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Codes raised by DDL that conflicts with existing catalog objects or concurrent sessions.
const (
	CodeDuplicateObject     = "42710"
	CodeDuplicateTable      = "42P07"
	CodeUndefinedObject     = "42704"
	CodeInvalidForeignKey   = "42830"
	CodeForeignKeyViolation = "23503"
	CodeLockNotAvailable    = "55P03"
	CodeDeadlockDetected    = "40P01"
)

type PgError struct {
	Err *pgconn.PgError
}

func NewPgError(err *pgconn.PgError) error {
	return &PgError{Err: err}
}

func (e *PgError) Error() string {
	msg := e.Err.Message
	if e.Err.Detail != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Err.Detail)
	}
	return fmt.Sprintf("%s (code %s)", msg, e.Err.Code)
}

func (e *PgError) Unwrap() error {
	return e.Err
}

// AsPgError returns the server error carried by err, if any.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
