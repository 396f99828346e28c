package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/mover"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/utils/testutils"
)

const commandsFixtureUp = `
CREATE SCHEMA external;
CREATE TABLE public.users (id SERIAL PRIMARY KEY);
CREATE TABLE external.orders (
	id SERIAL PRIMARY KEY,
	user_id INT CONSTRAINT fk_order_user REFERENCES public.users (id) ON DELETE CASCADE
);
CREATE TABLE external.audit_log (id BIGSERIAL PRIMARY KEY, payload TEXT);
INSERT INTO external.audit_log (payload) SELECT md5(g::text) FROM generate_series(1, 2000) g;
`

const commandsFixtureDown = `
DROP SCHEMA IF EXISTS external CASCADE;
DROP SCHEMA IF EXISTS archive CASCADE;
DROP TABLE IF EXISTS public.orders;
DROP TABLE IF EXISTS public.audit_log;
DROP TABLE IF EXISTS public.users;
`

const orderModel = `<?php

namespace App\Models;

class Order extends Model
{
    use HasFactory;
}
`

type commandsSuite struct {
	testutils.PgContainerSuite
	cfg *domains.Config
	out *bytes.Buffer
}

func TestCommandsIntegration(t *testing.T) {
	suite.Run(t, new(commandsSuite))
}

func (s *commandsSuite) SetupTest() {
	ctx := context.Background()
	s.SetMigrationUp(commandsFixtureUp).SetMigrationDown(commandsFixtureDown)
	s.MigrateUp(ctx)

	modelsDir := filepath.Join(s.T().TempDir(), "app", "Models")
	s.Require().NoError(os.MkdirAll(modelsDir, 0750))
	s.Require().NoError(os.WriteFile(filepath.Join(modelsDir, "Order.php"), []byte(orderModel), 0600))

	s.cfg = &domains.Config{
		Connection: s.GetConnectionConfig(ctx),
		Mover: domains.Mover{
			SourceSchema:      "external",
			DestinationSchema: "public",
		},
		Models: domains.Models{Dir: modelsDir, Dialect: "eloquent"},
	}
	s.out = &bytes.Buffer{}
}

func (s *commandsSuite) TearDownTest() {
	s.MigrateDown(context.Background())
}

func (s *commandsSuite) tableExists(schema, table string) bool {
	ctx := context.Background()
	conn, err := s.GetConnection(ctx)
	s.Require().NoError(err)
	defer conn.Close(ctx)
	exists, err := catalog.NewInspector(conn).TableExists(ctx, schema, table)
	s.Require().NoError(err)
	return exists
}

func (s *commandsSuite) modelContent() string {
	data, err := os.ReadFile(filepath.Join(s.cfg.Models.Dir, "Order.php"))
	s.Require().NoError(err)
	return string(data)
}

func (s *commandsSuite) TestMoveTable_Confirmed() {
	s.cfg.Mover.DestinationSchema = "archive"
	s.cfg.Mover.CreateSchema = true
	err := NewMoveTable(s.cfg, &MoveTableOptions{Table: "orders"}).
		SetIO(strings.NewReader("yes\n"), s.out).
		Run(context.Background())
	s.Require().NoError(err)

	s.True(s.tableExists("archive", "orders"))
	s.Contains(s.out.String(), "Table: orders")
	s.Contains(s.out.String(), "Do you want to proceed?")
	s.Contains(s.out.String(), "Recreated FK: fk_order_user → public.users")
	lines := strings.Split(strings.TrimSpace(s.out.String()), "\n")
	s.Require().GreaterOrEqual(len(lines), 2)
	s.Contains(lines[len(lines)-2], "Added table = 'archive.orders' to model")
	s.Equal("Table moved successfully", lines[len(lines)-1])
	s.Contains(s.modelContent(), "protected $table = 'archive.orders';")
}

func (s *commandsSuite) TestMoveTable_FailureJson() {
	err := NewMoveTable(s.cfg, &MoveTableOptions{Table: "orders", To: "archive", Format: FormatJson}).
		SetIO(strings.NewReader(""), s.out).
		Run(context.Background())
	s.Require().ErrorIs(err, mover.ErrSchemaMissing)

	res := s.out.String()
	s.Equal("rejected", gjson.Get(res, "outcome.state").String())
	s.Equal("orders", gjson.Get(res, "outcome.table").String())
	s.Contains(gjson.Get(res, "error").String(), "schema does not exist")
	s.False(gjson.Get(res, "model").Exists())
	s.True(s.tableExists("external", "orders"))
}

func (s *commandsSuite) TestMoveTable_Cancelled() {
	err := NewMoveTable(s.cfg, &MoveTableOptions{Table: "orders"}).
		SetIO(strings.NewReader("no\n"), s.out).
		Run(context.Background())
	s.Require().NoError(err)

	s.True(s.tableExists("external", "orders"))
	s.Contains(s.out.String(), "Operation cancelled")
	s.Equal(orderModel, s.modelContent())
}

func (s *commandsSuite) TestMoveTable_NotFoundBeforePrompt() {
	err := NewMoveTable(s.cfg, &MoveTableOptions{Table: "missing"}).
		SetIO(strings.NewReader("yes\n"), s.out).
		Run(context.Background())
	s.Require().ErrorIs(err, mover.ErrTableNotFound)
	s.NotContains(s.out.String(), "Do you want to proceed?")
}

func (s *commandsSuite) TestMoveTable_DryRunJson() {
	err := NewMoveTable(s.cfg, &MoveTableOptions{
		Table: "orders", To: "archive", CreateSchema: true, DryRun: true, Format: FormatJson,
	}).
		SetIO(strings.NewReader(""), s.out).
		Run(context.Background())
	s.Require().NoError(err)

	res := s.out.String()
	s.Equal("rolled_back", gjson.Get(res, "outcome.state").String())
	s.True(gjson.Get(res, "outcome.dry_run").Bool())
	s.Equal("fk_order_user", gjson.Get(res, "outcome.foreign_keys.0.name").String())
	s.True(gjson.Get(res, "outcome.schema_created").Bool())
	s.Equal("added", gjson.Get(res, "model.action").String())
	s.Equal("archive.orders", gjson.Get(res, "model.value").String())
	s.True(s.tableExists("external", "orders"))
	s.Equal(orderModel, s.modelContent())
}

func (s *commandsSuite) TestMoveTable_ModelMissingIsWarning() {
	s.Require().NoError(os.Remove(filepath.Join(s.cfg.Models.Dir, "Order.php")))
	err := NewMoveTable(s.cfg, &MoveTableOptions{Table: "orders", Force: true, Format: FormatYaml}).
		SetIO(strings.NewReader(""), s.out).
		Run(context.Background())
	s.Require().NoError(err)

	s.True(s.tableExists("public", "orders"))
	s.Contains(s.out.String(), "state: committed")
	s.Contains(s.out.String(), "model file not found")
}

func (s *commandsSuite) TestListTables() {
	err := NewListTables(s.cfg, &ListTablesOptions{}).SetOutput(s.out).Run(context.Background())
	s.Require().NoError(err)
	s.Contains(s.out.String(), "Schema: external (2 tables)")
	s.Contains(s.out.String(), "audit_log")
	s.Contains(s.out.String(), "orders")
}

func (s *commandsSuite) TestListTables_Where() {
	err := NewListTables(s.cfg, &ListTablesOptions{Where: `size_bytes > 64 * KB`, Format: FormatJson}).
		SetOutput(s.out).
		Run(context.Background())
	s.Require().NoError(err)

	res := s.out.String()
	s.Equal(int64(1), gjson.Get(res, "0.tables.#").Int())
	s.Equal("audit_log", gjson.Get(res, "0.tables.0.name").String())
}

func (s *commandsSuite) TestListTables_EmptyAndAll() {
	ctx := context.Background()
	err := NewListTables(s.cfg, &ListTablesOptions{Schema: "nothing_here"}).SetOutput(s.out).Run(ctx)
	s.Require().NoError(err)
	s.Equal("Schema 'nothing_here' has no tables\n", s.out.String())

	s.out.Reset()
	err = NewListTables(s.cfg, &ListTablesOptions{All: true}).SetOutput(s.out).Run(ctx)
	s.Require().NoError(err)
	s.Contains(s.out.String(), "Schema: external (2 tables)")
	s.Contains(s.out.String(), "Schema: public (1 tables)")
}
