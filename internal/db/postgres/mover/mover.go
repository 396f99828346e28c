// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mover

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/utils"
	"github.com/greenmaskio/schemashift/internal/utils/pgerrors"
)

// Catalog is the part of catalog.Inspector used by the mover
type Catalog interface {
	TableExists(ctx context.Context, schema, table string) (bool, error)
	SchemaExists(ctx context.Context, schema string) (bool, error)
	GetForeignKeys(ctx context.Context, schema, table string) ([]*catalog.ForeignKey, error)
	GetOwnedSequences(ctx context.Context, schema, table string) ([]*catalog.Sequence, error)
}

type CatalogFactory func(q catalog.Querier) Catalog

func newInspector(q catalog.Querier) Catalog {
	return catalog.NewInspector(q)
}

type Mover struct {
	conn       utils.PGConnector
	cfg        *Config
	printer    Printer
	newCatalog CatalogFactory
}

func New(conn utils.PGConnector, cfg *Config, printer Printer) *Mover {
	if cfg == nil {
		cfg = &Config{}
	}
	if printer == nil {
		printer = NopPrinter{}
	}
	return &Mover{
		conn:       conn,
		cfg:        cfg,
		printer:    printer,
		newCatalog: newInspector,
	}
}

func (m *Mover) WithCatalogFactory(f CatalogFactory) *Mover {
	m.newCatalog = f
	return m
}

// MoveTable relocates the table together with its owned sequences and foreign keys in a single
// transaction. In dry-run mode every statement is executed and then rolled back. The returned
// outcome is never nil and carries the state the operation stopped in.
func (m *Mover) MoveTable(ctx context.Context, req *Request) (*Outcome, error) {
	outcome := newOutcome(req)
	logger := log.With().
		Str("OperationID", outcome.OperationID.String()).
		Str("Table", req.Source().String()).
		Str("SchemaTo", req.SchemaTo).
		Bool("DryRun", req.DryRun).
		Logger()

	createSchema, err := m.validate(ctx, req)
	if err != nil {
		outcome.State = StateRejected
		logger.Debug().Err(err).Msg("move rejected")
		return outcome, err
	}
	outcome.State = StateValidated
	logger.Debug().Msg("preconditions checked")

	op := &operation{
		req:          req,
		outcome:      outcome,
		cfg:          m.cfg,
		printer:      m.printer,
		newCatalog:   m.newCatalog,
		logger:       logger,
		createSchema: createSchema,
	}

	runTx := m.conn.WithTx
	if req.DryRun {
		runTx = m.conn.WithRollbackTx
	}
	var bodyErr error
	err = runTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		bodyErr = op.run(ctx, tx)
		return bodyErr
	})
	if err != nil {
		outcome.State = StateRolledBack
		logger.Debug().Err(err).Msg("move transaction rolled back")
		if bodyErr != nil {
			return outcome, bodyErr
		}
		return outcome, classifyTxError(err)
	}

	if req.DryRun {
		outcome.State = StateRolledBack
	} else {
		outcome.State = StateCommitted
	}
	logger.Debug().
		Str("State", string(outcome.State)).
		Int("ForeignKeys", len(outcome.ForeignKeys)).
		Int("Sequences", len(outcome.Sequences)).
		Msg("move finished")
	return outcome, nil
}

// validate checks everything that can be checked without DDL. It reports whether the
// destination schema has to be created.
func (m *Mover) validate(ctx context.Context, req *Request) (bool, error) {
	if req.Table == "" {
		return false, errors.New("table name is required")
	}
	if req.SchemaFrom == req.SchemaTo {
		return false, errors.WithStack(fmt.Errorf("%w: %s", ErrSameSchema, req.SchemaFrom))
	}

	cat := m.newCatalog(m.conn.GetConn())

	exists, err := cat.TableExists(ctx, req.SchemaFrom, req.Table)
	if err != nil {
		return false, failure(err, nil, "cannot check table existence")
	}
	if !exists {
		return false, errors.WithStack(fmt.Errorf("%w: %s", ErrTableNotFound, req.Source()))
	}

	exists, err = cat.SchemaExists(ctx, req.SchemaTo)
	if err != nil {
		return false, failure(err, nil, "cannot check schema existence")
	}
	if !exists {
		if !req.CreateSchema {
			return false, errors.WithStack(fmt.Errorf("%w: %s", ErrSchemaMissing, req.SchemaTo))
		}
		return true, nil
	}

	exists, err = cat.TableExists(ctx, req.SchemaTo, req.Table)
	if err != nil {
		return false, failure(err, nil, "cannot check table existence")
	}
	if exists {
		return false, errors.WithStack(fmt.Errorf("%w: %s", ErrTableAlreadyExists, req.Destination()))
	}
	return false, nil
}

// operation - state of a single move inside its transaction
type operation struct {
	req          *Request
	outcome      *Outcome
	cfg          *Config
	printer      Printer
	newCatalog   CatalogFactory
	logger       zerolog.Logger
	createSchema bool
	// held - foreign keys dropped from the table that must be recreated after the move
	held []*catalog.ForeignKey
}

func (op *operation) run(ctx context.Context, tx pgx.Tx) error {
	req := op.req
	src := req.Source()
	dst := req.Destination()
	cat := op.newCatalog(tx)

	if op.cfg.LockTimeout > 0 {
		if err := op.exec(ctx, tx, setLockTimeoutStatement(op.cfg.LockTimeout)); err != nil {
			return failure(err, nil, "cannot set lock timeout")
		}
	}

	if op.createSchema {
		if err := op.exec(ctx, tx, createSchemaStatement(req.SchemaTo)); err != nil {
			return failure(err, nil, fmt.Sprintf("cannot create schema %s", req.SchemaTo))
		}
		op.outcome.SchemaCreated = true
		op.printer.SchemaCreated(req.SchemaTo, req.DryRun)
	}

	fks, err := cat.GetForeignKeys(ctx, src.Schema, src.Name)
	if err != nil {
		return failure(err, nil, "cannot get foreign keys")
	}
	op.outcome.State = StateFKsCaptured
	op.printer.ForeignKeysFound(len(fks))
	op.logger.Debug().Int("Count", len(fks)).Msg("foreign keys captured")

	ownedBefore, err := cat.GetOwnedSequences(ctx, src.Schema, src.Name)
	if err != nil {
		return failure(err, nil, "cannot get owned sequences")
	}

	op.held = make([]*catalog.ForeignKey, 0, len(fks))
	for _, fk := range fks {
		if err = op.exec(ctx, tx, dropConstraintStatement(src, fk.Name)); err != nil {
			return failure(err, ErrConstraintConflict, fmt.Sprintf("cannot drop foreign key %s", fk.Name))
		}
		op.held = append(op.held, fk)
		op.printer.ForeignKeyDropped(fk, req.DryRun)
	}
	op.outcome.State = StateFKsDropped

	moveStmt := setTableSchemaStatement(src, req.SchemaTo)
	if err = op.exec(ctx, tx, moveStmt); err != nil {
		return failure(err, nil, fmt.Sprintf("cannot move table %s", src))
	}
	op.outcome.State = StateTableRelocated
	op.printer.TableMoved(moveStmt, req.SchemaTo, req.DryRun)

	if err = op.relocateSequences(ctx, tx, cat, ownedBefore); err != nil {
		return err
	}

	for _, fk := range op.held {
		target := fk.Retarget(src, req.SchemaTo)
		stmt, err := addForeignKeyStatement(dst, target)
		if err != nil {
			return errors.WithStack(fmt.Errorf("%w: %w", ErrConstraintConflict, err))
		}
		if err = op.exec(ctx, tx, stmt); err != nil {
			return failure(err, ErrConstraintConflict, fmt.Sprintf("cannot recreate foreign key %s", fk.Name))
		}
		op.outcome.ForeignKeys = append(op.outcome.ForeignKeys, ProcessedForeignKey{
			Name:          target.Name,
			ForeignSchema: target.ForeignSchema,
			ForeignTable:  target.ForeignTable,
		})
		op.printer.ForeignKeyRecreated(target, req.DryRun)
	}
	op.held = nil
	op.outcome.State = StateFKsRecreated
	return nil
}

// relocateSequences moves owned sequences that are still outside the destination schema.
// Sequences that lived next to the table are reported as relocated whether the server moved
// them together with the table or an explicit statement did.
func (op *operation) relocateSequences(
	ctx context.Context, tx pgx.Tx, cat Catalog, ownedBefore []*catalog.Sequence,
) error {
	req := op.req
	dst := req.Destination()
	owned, err := cat.GetOwnedSequences(ctx, dst.Schema, dst.Name)
	if err != nil {
		return failure(err, nil, "cannot get owned sequences")
	}

	wasInSource := make(map[string]bool, len(ownedBefore))
	for _, seq := range ownedBefore {
		if seq.Schema == req.SchemaFrom {
			wasInSource[seq.Name] = true
		}
	}

	for _, seq := range owned {
		if seq.Schema != req.SchemaTo {
			if err = op.exec(ctx, tx, setSequenceSchemaStatement(seq.Ref(), req.SchemaTo)); err != nil {
				return failure(err, nil, fmt.Sprintf("cannot relocate sequence %s", seq.Ref()))
			}
		} else if !wasInSource[seq.Name] {
			continue
		}
		op.outcome.Sequences = append(op.outcome.Sequences, seq.Name)
		op.printer.SequenceRelocated(seq, req.SchemaTo, req.DryRun)
	}
	return nil
}

func (op *operation) exec(ctx context.Context, tx pgx.Tx, stmt string) error {
	op.outcome.Statements = append(op.outcome.Statements, stmt)
	ev := op.logger.Debug()
	if op.cfg.LogQueries {
		ev = op.logger.Info()
	}
	ev.Str("Statement", stmt).Msg("executing")
	_, err := tx.Exec(ctx, stmt)
	return err
}

// failure wraps an error of the move. Server errors are classified with class when it is set,
// errors of a lost session are classified as ErrConnectionFailure, anything else is kept as is.
func failure(err error, class error, msg string) error {
	if pgErr, ok := pgerrors.AsPgError(err); ok {
		if class != nil {
			return errors.WithStack(fmt.Errorf("%s: %w: %w", msg, class, pgerrors.NewPgError(pgErr)))
		}
		return errors.WithStack(fmt.Errorf("%s: %w", msg, pgerrors.NewPgError(pgErr)))
	}
	if connectionLost(err) {
		return errors.WithStack(fmt.Errorf("%s: %w: %w", msg, ErrConnectionFailure, err))
	}
	return errors.WithStack(fmt.Errorf("%s: %w", msg, err))
}

// classifyTxError classifies errors of the transaction control statements
func classifyTxError(err error) error {
	if _, ok := pgerrors.AsPgError(err); ok {
		return errors.WithStack(err)
	}
	if connectionLost(err) {
		return errors.WithStack(fmt.Errorf("%w: %w", ErrConnectionFailure, err))
	}
	return errors.WithStack(err)
}

func connectionLost(err error) bool {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
