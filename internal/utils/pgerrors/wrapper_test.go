package pgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Message: `constraint "fk_order_user" for relation "orders" already exists`,
		Code:    CodeDuplicateObject,
	}
	require.Equal(t,
		`constraint "fk_order_user" for relation "orders" already exists (code 42710)`,
		NewPgError(pgErr).Error(),
	)

	withDetail := &pgconn.PgError{Message: "insert or update violates foreign key", Detail: "Key (user_id)=(1) is not present.", Code: CodeForeignKeyViolation}
	wrapped := fmt.Errorf("recreate: %w", NewPgError(withDetail))
	require.Equal(t,
		"recreate: insert or update violates foreign key Key (user_id)=(1) is not present. (code 23503)",
		wrapped.Error(),
	)
	require.True(t, errors.Is(wrapped, withDetail))
}

func TestAsPgError(t *testing.T) {
	_, ok := AsPgError(errors.New("plain"))
	require.False(t, ok)

	pgErr := &pgconn.PgError{Code: CodeLockNotAvailable}
	res, ok := AsPgError(NewPgError(pgErr))
	require.True(t, ok)
	require.Equal(t, CodeLockNotAvailable, res.Code)
}
