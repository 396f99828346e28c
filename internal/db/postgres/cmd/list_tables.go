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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/mover"
	"github.com/greenmaskio/schemashift/internal/db/postgres/utils"
	"github.com/greenmaskio/schemashift/internal/domains"
)

type ListTablesOptions struct {
	Schema string
	All    bool
	Where  string
	Format string
}

type SchemaTables struct {
	Schema string           `json:"schema" yaml:"schema"`
	Tables []*catalog.Table `json:"tables" yaml:"tables"`
}

type ListTables struct {
	cfg  *domains.Config
	opts *ListTablesOptions
	out  io.Writer
}

func NewListTables(cfg *domains.Config, opts *ListTablesOptions) *ListTables {
	if opts.Schema == "" {
		opts.Schema = cfg.Mover.SourceSchema
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &ListTables{
		cfg:  cfg,
		opts: opts,
		out:  os.Stdout,
	}
}

func (lt *ListTables) SetOutput(w io.Writer) *ListTables {
	lt.out = w
	return lt
}

func (lt *ListTables) Run(ctx context.Context) error {
	if err := ValidateFormat(lt.opts.Format); err != nil {
		return err
	}
	var filter *catalog.TableFilter
	if lt.opts.Where != "" {
		var err error
		if filter, err = catalog.NewTableFilter(lt.opts.Where); err != nil {
			return err
		}
	}

	conn, err := utils.Connect(ctx, lt.cfg.Connection.GetPgDSN())
	if err != nil {
		return pkgerrors.WithStack(fmt.Errorf("%w: %w", mover.ErrConnectionFailure, err))
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("cannot close connection")
		}
	}()

	res, err := lt.collect(ctx, catalog.NewInspector(conn.GetConn()), filter)
	if err != nil {
		return err
	}
	if lt.opts.Format != FormatText {
		return printStructured(lt.out, lt.opts.Format, res)
	}
	lt.printText(res)
	return nil
}

func (lt *ListTables) collect(
	ctx context.Context, inspector *catalog.Inspector, filter *catalog.TableFilter,
) ([]*SchemaTables, error) {
	schemas := []string{lt.opts.Schema}
	if lt.opts.All {
		var err error
		if schemas, err = inspector.ListSchemas(ctx); err != nil {
			return nil, err
		}
	}

	res := make([]*SchemaTables, 0, len(schemas))
	for _, schema := range schemas {
		tables, err := inspector.ListTables(ctx, schema)
		if err != nil {
			return nil, err
		}
		if filter != nil {
			if tables, err = filter.Apply(tables); err != nil {
				return nil, err
			}
		}
		log.Debug().
			Str("Schema", schema).
			Int("Tables", len(tables)).
			Msg("tables listed")
		res = append(res, &SchemaTables{Schema: schema, Tables: tables})
	}
	return res, nil
}

func (lt *ListTables) printText(res []*SchemaTables) {
	for idx, st := range res {
		if idx > 0 {
			_, _ = fmt.Fprintln(lt.out)
		}
		if len(st.Tables) == 0 {
			_, _ = fmt.Fprintf(lt.out, "Schema '%s' has no tables\n", st.Schema)
			continue
		}
		_, _ = fmt.Fprintf(lt.out, "Schema: %s (%d tables)\n", st.Schema, len(st.Tables))

		data := make([][]string, 0, len(st.Tables))
		for _, t := range st.Tables {
			data = append(data, []string{t.Name, t.Size})
		}
		table := tablewriter.NewWriter(lt.out)
		table.SetHeader([]string{"Table", "Size"})
		table.SetAutoFormatHeaders(false)
		table.AppendBulk(data)
		table.Render()
	}
}
