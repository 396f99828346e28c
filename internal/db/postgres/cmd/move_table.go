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

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/mover"
	"github.com/greenmaskio/schemashift/internal/db/postgres/utils"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/modelfile"
)

type MoveTableOptions struct {
	Table        string
	From         string
	To           string
	Model        string
	DryRun       bool
	Force        bool
	CreateSchema bool
	Format       string
}

type MoveTableResult struct {
	Outcome *mover.Outcome    `json:"outcome" yaml:"outcome"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
	Model   *modelfile.Change `json:"model,omitempty" yaml:"model,omitempty"`
	// Warnings - non fatal problems of the model update
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type MoveTable struct {
	cfg  *domains.Config
	opts *MoveTableOptions
	in   *bufio.Reader
	out  io.Writer
}

func NewMoveTable(cfg *domains.Config, opts *MoveTableOptions) *MoveTable {
	if opts.From == "" {
		opts.From = cfg.Mover.SourceSchema
	}
	if opts.To == "" {
		opts.To = cfg.Mover.DestinationSchema
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	opts.CreateSchema = opts.CreateSchema || cfg.Mover.CreateSchema
	return &MoveTable{
		cfg:  cfg,
		opts: opts,
		in:   bufio.NewReader(os.Stdin),
		out:  os.Stdout,
	}
}

func (mt *MoveTable) SetIO(in io.Reader, out io.Writer) *MoveTable {
	mt.in = bufio.NewReader(in)
	mt.out = out
	return mt
}

func (mt *MoveTable) Run(ctx context.Context) error {
	if err := ValidateFormat(mt.opts.Format); err != nil {
		return err
	}
	moverCfg, err := mover.NewConfig(mt.cfg.Mover.LockTimeout, mt.cfg.Mover.LogQueries)
	if err != nil {
		return err
	}

	conn, err := utils.Connect(ctx, mt.cfg.Connection.GetPgDSN())
	if err != nil {
		return pkgerrors.WithStack(fmt.Errorf("%w: %w", mover.ErrConnectionFailure, err))
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("cannot close connection")
		}
	}()

	return mt.run(ctx, conn, moverCfg)
}

func (mt *MoveTable) run(ctx context.Context, conn utils.PGConnector, moverCfg *mover.Config) error {
	var printer mover.Printer = mover.NopPrinter{}
	if mt.opts.Format == FormatText {
		printer = mover.NewTextPrinter(mt.out)
	}
	if mt.opts.DryRun {
		printer.DryRunStarted()
	}

	if mt.opts.Format == FormatText && !mt.opts.DryRun && !mt.opts.Force {
		proceed, err := mt.ask(ctx, conn)
		if err != nil {
			return err
		}
		if !proceed {
			_, _ = fmt.Fprintln(mt.out, "Operation cancelled")
			return nil
		}
	}

	m := mover.New(conn, moverCfg, printer)
	outcome, err := m.MoveTable(ctx, &mover.Request{
		Table:        mt.opts.Table,
		SchemaFrom:   mt.opts.From,
		SchemaTo:     mt.opts.To,
		DryRun:       mt.opts.DryRun,
		CreateSchema: mt.opts.CreateSchema,
	})
	res := &MoveTableResult{Outcome: outcome}
	if err != nil {
		if mt.opts.Format != FormatText && outcome != nil {
			res.Error = err.Error()
			if printErr := printStructured(mt.out, mt.opts.Format, res); printErr != nil {
				log.Warn().Err(printErr).Msg("cannot print move outcome")
			}
		}
		return err
	}

	change, err := mt.updateModel()
	if err != nil {
		log.Warn().Err(err).Str("Table", mt.opts.Table).Msg("model file was not updated")
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		res.Model = change
		if mt.opts.Format == FormatText {
			_, _ = fmt.Fprintln(mt.out, change.String())
		}
	}

	if mt.opts.Format != FormatText {
		return printStructured(mt.out, mt.opts.Format, res)
	}
	printer.Completed(mt.opts.DryRun)
	return nil
}

// ask prints the summary of the move and asks for a confirmation. The table existence is checked
// first so the user is never asked about a move that cannot happen.
func (mt *MoveTable) ask(ctx context.Context, conn utils.PGConnector) (bool, error) {
	inspector := catalog.NewInspector(conn.GetConn())
	exists, err := inspector.TableExists(ctx, mt.opts.From, mt.opts.Table)
	if err != nil {
		return false, pkgerrors.WithStack(fmt.Errorf("%w: %w", mover.ErrConnectionFailure, err))
	}
	if !exists {
		return false, pkgerrors.WithStack(
			fmt.Errorf("%w: %s", mover.ErrTableNotFound, catalog.NewTableRef(mt.opts.From, mt.opts.Table)),
		)
	}

	_, _ = fmt.Fprintf(mt.out, "Table: %s\nFrom:  %s\nTo:    %s\n", mt.opts.Table, mt.opts.From, mt.opts.To)
	return confirm(mt.in, mt.out, "Do you want to proceed?", true)
}

func (mt *MoveTable) updateModel() (*modelfile.Change, error) {
	updater, err := modelfile.NewUpdater(&modelfile.Config{
		Dir:           mt.cfg.Models.Dir,
		Dialect:       mt.cfg.Models.Dialect,
		Manifest:      mt.cfg.Models.Manifest,
		JsonPath:      mt.cfg.Models.JsonPath,
		DefaultSchema: mt.cfg.Connection.DefaultSchema(),
	})
	if err != nil {
		return nil, err
	}
	change, err := updater.Update(mt.opts.Table, mt.opts.To, mt.opts.Model, mt.opts.DryRun)
	if err != nil {
		if errors.Is(err, modelfile.ErrModelNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("model update failed: %w", err)
	}
	return change, nil
}
