package logger

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pkgErrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/greenmaskio/schemashift/internal/utils/pgerrors"
)

func TestSetLogLevel(t *testing.T) {
	require.NoError(t, SetLogLevel("debug", LogFormatTextValue))
	require.NoError(t, SetLogLevel("info", LogFormatJsonValue))
	require.Error(t, SetLogLevel("trace", LogFormatTextValue))
	require.ErrorIs(t, SetLogLevel("info", "xml"), errUnknownLogFormat)
}

func TestPrintError(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		buf := new(bytes.Buffer)
		PrintError(buf, errors.New("boom"), false)
		require.Equal(t, "Error: boom\n", buf.String())
	})

	t.Run("verbose prints stack", func(t *testing.T) {
		buf := new(bytes.Buffer)
		PrintError(buf, pkgErrors.New("boom"), true)
		require.Contains(t, buf.String(), "Error: boom\n")
		require.Contains(t, buf.String(), "TestPrintError")
	})
	t.Run("long message stays on one line", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Message: `there is no unique constraint matching given keys for referenced table "пользователи_архив"`,
			Code:    pgerrors.CodeInvalidForeignKey,
		}
		err := fmt.Errorf("cannot recreate foreign key fk_order_user: constraint conflict: %w", pgerrors.NewPgError(pgErr))
		require.Greater(t, len(err.Error()), 120)

		buf := new(bytes.Buffer)
		PrintError(buf, err, false)
		require.Equal(t, "Error: "+err.Error()+"\n", buf.String())
		require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	})

	t.Run("verbose prints server error fields", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Severity: "ERROR",
			Message:  "canceling statement due to lock timeout",
			Code:     pgerrors.CodeLockNotAvailable,
			Where:    `SQL statement "ALTER TABLE external.orders SET SCHEMA public"`,
		}
		buf := new(bytes.Buffer)
		PrintError(buf, pkgErrors.WithStack(fmt.Errorf("move failed: %w", pgErr)), true)
		out := buf.String()
		require.True(t, strings.HasPrefix(out, "Error: move failed: ERROR: canceling statement due to lock timeout (SQLSTATE 55P03)\n"))
		require.Contains(t, out, "Server error:\n  severity:\n    ERROR\n  code:\n    55P03\n")
		require.Contains(t, out, "  where:\n    SQL statement")
		require.NotContains(t, out, "  hint:")
	})
}
