package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Render(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	createdAt := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	up, down, err := g.Render("orders", "external", "public", createdAt)
	require.NoError(t, err)

	assert.Contains(t, up, `-- Generated by schemashift at 2024-03-01 10:20:30`)
	assert.Contains(t, up, `ALTER TABLE "external"."orders" SET SCHEMA "public";`)
	assert.Contains(t, up, `AND sn.nspname = 'external'`)
	assert.Contains(t, up, `EXECUTE format('ALTER SEQUENCE %I.%I SET SCHEMA %I', 'external', seq.relname, 'public');`)

	assert.Contains(t, down, `ALTER TABLE "public"."orders" SET SCHEMA "external";`)
	assert.Contains(t, down, `AND tn.nspname = 'external'`)
}

func TestGenerator_Render_Quoting(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	up, _, err := g.Render("O'Brien", `we"ird`, "public", time.Now())
	require.NoError(t, err)
	assert.Contains(t, up, `ALTER TABLE "we""ird"."O'Brien" SET SCHEMA "public";`)
	assert.Contains(t, up, `AND t.relname = 'O''Brien'`)
}

func TestGenerator_Validation(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	_, err = g.Generate("orders", "", "public")
	require.ErrorIs(t, err, ErrSchemaRequired)
	_, err = g.Generate("orders", "public", "public")
	require.ErrorIs(t, err, ErrSameSchema)
	_, err = g.Generate("", "external", "public")
	require.ErrorIs(t, err, ErrTableRequired)
}

func TestGenerator_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "database", "migrations")
	g, err := NewGenerator(dir)
	require.NoError(t, err)
	g.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	}

	m, err := g.Generate("orders", "external", "public")
	require.NoError(t, err)
	assert.Equal(t, "20240301102030_move_orders_from_external_to_public", m.Name)
	assert.Equal(t, filepath.Join(dir, m.Name+".up.sql"), m.UpPath)

	up, err := os.ReadFile(m.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), `SET SCHEMA "public";`)

	down, err := os.ReadFile(m.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), `SET SCHEMA "external";`)
}
