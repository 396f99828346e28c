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

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Inspector - read-only catalog introspection. It never modifies the database.
type Inspector struct {
	q Querier
}

func NewInspector(q Querier) *Inspector {
	return &Inspector{q: q}
}

// TableExists - absence of the table is a normal false result
func (i *Inspector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var exists bool
	if err := i.q.QueryRow(ctx, tableExistsQuery, schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s existence: %w", NewTableRef(schema, table), err)
	}
	return exists, nil
}

func (i *Inspector) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	if err := i.q.QueryRow(ctx, schemaExistsQuery, schema).Scan(&exists); err != nil {
		return false, fmt.Errorf("check schema \"%s\" existence: %w", schema, err)
	}
	return exists, nil
}

func (i *Inspector) ListTables(ctx context.Context, schema string) ([]*Table, error) {
	rows, err := i.q.Query(ctx, listTablesQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables of schema \"%s\": %w", schema, err)
	}
	defer rows.Close()

	res := make([]*Table, 0)
	for rows.Next() {
		t := &Table{Schema: schema}
		if err = rows.Scan(&t.Name, &t.Size, &t.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		res = append(res, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables of schema \"%s\": %w", schema, err)
	}
	return res, nil
}

func (i *Inspector) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := i.q.Query(ctx, listSchemasQuery)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	res := make([]string, 0)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		res = append(res, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return res, nil
}

func (i *Inspector) GetForeignKeys(ctx context.Context, schema, table string) ([]*ForeignKey, error) {
	rows, err := i.q.Query(ctx, foreignKeysQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys of %s: %w", NewTableRef(schema, table), err)
	}
	defer rows.Close()

	res := make([]*ForeignKey, 0)
	for rows.Next() {
		var updateCode, deleteCode string
		fk := &ForeignKey{}
		err = rows.Scan(
			&fk.Name, &fk.Columns, &fk.ForeignSchema, &fk.ForeignTable, &fk.ForeignColumns,
			&updateCode, &deleteCode, &fk.MatchFull, &fk.Deferrable, &fk.InitiallyDeferred, &fk.Validated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		if fk.UpdateRule, err = ParseReferentialAction(updateCode); err != nil {
			return nil, fmt.Errorf("foreign key \"%s\" update rule: %w", fk.Name, err)
		}
		if fk.DeleteRule, err = ParseReferentialAction(deleteCode); err != nil {
			return nil, fmt.Errorf("foreign key \"%s\" delete rule: %w", fk.Name, err)
		}
		res = append(res, fk)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("get foreign keys of %s: %w", NewTableRef(schema, table), err)
	}
	return res, nil
}

func (i *Inspector) GetOwnedSequences(ctx context.Context, schema, table string) ([]*Sequence, error) {
	rows, err := i.q.Query(ctx, ownedSequencesQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("get owned sequences of %s: %w", NewTableRef(schema, table), err)
	}
	defer rows.Close()

	res := make([]*Sequence, 0)
	for rows.Next() {
		s := &Sequence{}
		if err = rows.Scan(&s.Schema, &s.Name, &s.Column); err != nil {
			return nil, fmt.Errorf("scan sequence row: %w", err)
		}
		res = append(res, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("get owned sequences of %s: %w", NewTableRef(schema, table), err)
	}
	return res, nil
}

// FindTableSchema returns the first schema in schemas that has the table
func (i *Inspector) FindTableSchema(ctx context.Context, table string, schemas []string) (string, bool, error) {
	var schema string
	err := i.q.QueryRow(ctx, findTableSchemaQuery, table, schemas).Scan(&schema)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find schema of table \"%s\": %w", table, err)
	}
	return schema, true, nil
}
