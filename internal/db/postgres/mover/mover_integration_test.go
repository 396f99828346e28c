package mover

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/utils"
	"github.com/greenmaskio/schemashift/internal/utils/testutils"
)

const moverFixtureUp = `
CREATE SCHEMA external;

CREATE TABLE public.users (
	id SERIAL PRIMARY KEY,
	email TEXT NOT NULL
);

CREATE TABLE external.orders (
	id SERIAL PRIMARY KEY,
	user_id INT,
	parent_id INT,
	total NUMERIC(10, 2),
	CONSTRAINT fk_order_user FOREIGN KEY (user_id) REFERENCES public.users (id) ON UPDATE CASCADE ON DELETE CASCADE,
	CONSTRAINT fk_order_parent FOREIGN KEY (parent_id) REFERENCES external.orders (id) ON DELETE SET NULL
);

CREATE TABLE external.audit_log (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	payload TEXT
);

INSERT INTO public.users (email) VALUES ('a@example.com'), ('b@example.com');
INSERT INTO external.orders (user_id, parent_id, total) VALUES (1, NULL, 10), (2, 1, 20);
`

const moverFixtureDown = `
DROP SCHEMA IF EXISTS external CASCADE;
DROP SCHEMA IF EXISTS archive CASCADE;
DROP TABLE IF EXISTS public.orders;
DROP TABLE IF EXISTS public.audit_log;
DROP TABLE IF EXISTS public.users;
`

type moverSuite struct {
	testutils.PgContainerSuite
	conn *utils.PGConn
	insp *catalog.Inspector
	out  *bytes.Buffer
}

func TestMoverIntegration(t *testing.T) {
	suite.Run(t, new(moverSuite))
}

func (s *moverSuite) SetupSuite() {
	s.PgContainerSuite.SetupSuite()
	var err error
	s.conn, err = utils.Connect(context.Background(), s.GetDSN(context.Background()))
	s.Require().NoError(err)
	s.insp = catalog.NewInspector(s.conn.GetConn())
}

func (s *moverSuite) TearDownSuite() {
	s.Require().NoError(s.conn.Close(context.Background()))
	s.PgContainerSuite.TearDownSuite()
}

func (s *moverSuite) SetupTest() {
	_, err := s.conn.GetConn().Exec(context.Background(), moverFixtureUp)
	s.Require().NoError(err)
	s.out = &bytes.Buffer{}
}

func (s *moverSuite) TearDownTest() {
	_, err := s.conn.GetConn().Exec(context.Background(), moverFixtureDown)
	s.Require().NoError(err)
}

func (s *moverSuite) newMover(cfg *Config) *Mover {
	return New(s.conn, cfg, NewTextPrinter(s.out))
}

func (s *moverSuite) tableExists(schema, table string) bool {
	exists, err := s.insp.TableExists(context.Background(), schema, table)
	s.Require().NoError(err)
	return exists
}

func (s *moverSuite) TestMoveWithForeignKeys() {
	ctx := context.Background()
	before, err := s.insp.GetForeignKeys(ctx, "external", "orders")
	s.Require().NoError(err)

	outcome, err := s.newMover(nil).MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().NoError(err)
	s.Require().Equal(StateCommitted, outcome.State)

	s.False(s.tableExists("external", "orders"))
	s.True(s.tableExists("public", "orders"))

	after, err := s.insp.GetForeignKeys(ctx, "public", "orders")
	s.Require().NoError(err)
	s.Require().Len(after, len(before))
	for i := range before {
		s.Equal(before[i].Retarget(catalog.NewTableRef("external", "orders"), "public"), after[i])
	}
	s.Equal("public", after[0].ForeignSchema)
	s.Equal("orders", after[0].ForeignTable)

	seqs, err := s.insp.GetOwnedSequences(ctx, "public", "orders")
	s.Require().NoError(err)
	s.Require().Len(seqs, 1)
	s.Equal("public", seqs[0].Schema)
	s.Equal([]string{seqs[0].Name}, outcome.Sequences)

	var count int
	s.Require().NoError(s.conn.GetConn().QueryRow(ctx, "SELECT count(*) FROM public.orders").Scan(&count))
	s.Equal(2, count)

	_, err = s.conn.GetConn().Exec(ctx, "INSERT INTO public.orders (user_id, total) VALUES (1, 5)")
	s.Require().NoError(err)
	_, err = s.conn.GetConn().Exec(ctx, "INSERT INTO public.orders (user_id, total) VALUES (999, 5)")
	s.Require().Error(err)

	s.Contains(s.out.String(), "Found 2 foreign key(s)")
	s.Contains(s.out.String(), "Recreated FK: fk_order_user → public.users")
}

func (s *moverSuite) TestDryRunLeavesCatalogUnchanged() {
	ctx := context.Background()
	before, err := s.insp.GetForeignKeys(ctx, "external", "orders")
	s.Require().NoError(err)

	outcome, err := s.newMover(nil).MoveTable(ctx, &Request{
		Table: "orders", SchemaFrom: "external", SchemaTo: "archive", DryRun: true, CreateSchema: true,
	})
	s.Require().NoError(err)
	s.Equal(StateRolledBack, outcome.State)
	s.True(outcome.SchemaCreated)

	s.True(s.tableExists("external", "orders"))
	exists, err := s.insp.SchemaExists(ctx, "archive")
	s.Require().NoError(err)
	s.False(exists)

	after, err := s.insp.GetForeignKeys(ctx, "external", "orders")
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Contains(s.out.String(), "Would execute: ALTER TABLE")
}

func (s *moverSuite) TestRoundTrip() {
	ctx := context.Background()
	before, err := s.insp.GetForeignKeys(ctx, "external", "orders")
	s.Require().NoError(err)

	m := s.newMover(&Config{LogQueries: true})
	_, err = m.MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().NoError(err)
	_, err = m.MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "public", SchemaTo: "external"})
	s.Require().NoError(err)

	after, err := s.insp.GetForeignKeys(ctx, "external", "orders")
	s.Require().NoError(err)
	s.Equal(before, after)

	seqs, err := s.insp.GetOwnedSequences(ctx, "external", "orders")
	s.Require().NoError(err)
	s.Require().Len(seqs, 1)
	s.Equal("external", seqs[0].Schema)
}

func (s *moverSuite) TestMoveWithoutForeignKeys() {
	ctx := context.Background()
	outcome, err := s.newMover(nil).MoveTable(ctx, &Request{Table: "audit_log", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().NoError(err)
	s.Empty(outcome.ForeignKeys)
	s.True(s.tableExists("public", "audit_log"))
	s.Contains(s.out.String(), "Found 0 foreign key(s)")

	_, err = s.conn.GetConn().Exec(ctx, "INSERT INTO public.audit_log (payload) VALUES ('x')")
	s.Require().NoError(err)
}

func (s *moverSuite) TestRejected() {
	ctx := context.Background()

	_, err := s.newMover(nil).MoveTable(ctx, &Request{Table: "missing", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().ErrorIs(err, ErrTableNotFound)

	_, err = s.newMover(nil).MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "archive"})
	s.Require().ErrorIs(err, ErrSchemaMissing)

	_, err = s.conn.GetConn().Exec(ctx, "CREATE TABLE public.orders (id INT)")
	s.Require().NoError(err)
	_, err = s.newMover(nil).MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().ErrorIs(err, ErrTableAlreadyExists)
	s.True(s.tableExists("external", "orders"))
}

func (s *moverSuite) TestNotValidConstraintKeepsState() {
	ctx := context.Background()
	_, err := s.conn.GetConn().Exec(ctx, `
		ALTER TABLE external.orders DROP CONSTRAINT fk_order_user;
		INSERT INTO external.orders (user_id, total) VALUES (999, 1);
		ALTER TABLE external.orders ADD CONSTRAINT fk_order_user FOREIGN KEY (user_id)
			REFERENCES public.users (id) NOT VALID;
	`)
	s.Require().NoError(err)

	outcome, err := s.newMover(nil).MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().NoError(err)
	s.Equal(StateCommitted, outcome.State)

	var validated bool
	err = s.conn.GetConn().QueryRow(ctx,
		"SELECT convalidated FROM pg_catalog.pg_constraint WHERE conname = 'fk_order_user'",
	).Scan(&validated)
	s.Require().NoError(err)
	s.False(validated)
}

func (s *moverSuite) TestLockTimeout() {
	ctx := context.Background()
	other, err := s.GetConnection(ctx)
	s.Require().NoError(err)
	defer other.Close(ctx)

	tx, err := other.Begin(ctx)
	s.Require().NoError(err)
	defer func(tx pgx.Tx) {
		_ = tx.Rollback(ctx)
	}(tx)
	_, err = tx.Exec(ctx, "LOCK TABLE external.orders IN ACCESS SHARE MODE")
	s.Require().NoError(err)

	outcome, err := s.newMover(&Config{LockTimeout: 200 * time.Millisecond}).
		MoveTable(ctx, &Request{Table: "orders", SchemaFrom: "external", SchemaTo: "public"})
	s.Require().Error(err)
	s.NotErrorIs(err, ErrConnectionFailure)
	s.Equal(StateRolledBack, outcome.State)
	s.True(s.tableExists("external", "orders"))
}
