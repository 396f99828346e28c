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
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the part of *pgx.Conn and pgx.Tx the inspector needs. The same inspector works
// outside a transaction for precondition checks and inside one for foreign key discovery.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableRef - relation identity
type TableRef struct {
	Schema string `json:"schema" yaml:"schema"`
	Name   string `json:"name" yaml:"name"`
}

func NewTableRef(schema, name string) TableRef {
	return TableRef{Schema: schema, Name: name}
}

func (t TableRef) String() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// Identifier - quoted identifier ready to be placed into DDL
func (t TableRef) Identifier() string {
	return pgx.Identifier{t.Schema, t.Name}.Sanitize()
}

// Table - row of the schema listing
type Table struct {
	Schema    string `json:"schema" yaml:"schema"`
	Name      string `json:"name" yaml:"name"`
	Size      string `json:"size" yaml:"size"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}

// ForeignKey - foreign key constraint defined on a table (the table is the referencing side).
// It keeps everything needed to recreate the constraint with the same semantic.
type ForeignKey struct {
	// Name - constraint name, it is kept when the constraint is recreated
	Name string `json:"name" yaml:"name"`
	// Columns - referencing columns in the constraint key order
	Columns []string `json:"columns" yaml:"columns"`
	// ForeignSchema - schema of the referenced table
	ForeignSchema string `json:"foreign_schema" yaml:"foreign_schema"`
	// ForeignTable - referenced table name
	ForeignTable string `json:"foreign_table" yaml:"foreign_table"`
	// ForeignColumns - referenced columns matching Columns by position
	ForeignColumns    []string          `json:"foreign_columns" yaml:"foreign_columns"`
	UpdateRule        ReferentialAction `json:"update_rule" yaml:"update_rule"`
	DeleteRule        ReferentialAction `json:"delete_rule" yaml:"delete_rule"`
	MatchFull         bool              `json:"match_full,omitempty" yaml:"match_full,omitempty"`
	Deferrable        bool              `json:"deferrable,omitempty" yaml:"deferrable,omitempty"`
	InitiallyDeferred bool              `json:"initially_deferred,omitempty" yaml:"initially_deferred,omitempty"`
	// Validated - false for constraints created with NOT VALID that were never validated
	Validated bool `json:"validated" yaml:"validated"`
}

func (fk *ForeignKey) ForeignTableRef() TableRef {
	return NewTableRef(fk.ForeignSchema, fk.ForeignTable)
}

// IsSelfReference - the constraint references the table it is defined on
func (fk *ForeignKey) IsSelfReference(owner TableRef) bool {
	return fk.ForeignSchema == owner.Schema && fk.ForeignTable == owner.Name
}

// Retarget returns a copy that references the table in the new location when the key is a
// self reference of owner. Other keys are returned as a plain copy.
func (fk *ForeignKey) Retarget(owner TableRef, newSchema string) *ForeignKey {
	res := *fk
	res.Columns = append([]string(nil), fk.Columns...)
	res.ForeignColumns = append([]string(nil), fk.ForeignColumns...)
	if fk.IsSelfReference(owner) {
		res.ForeignSchema = newSchema
	}
	return &res
}

// Sequence - sequence owned by a table column
type Sequence struct {
	Schema string `json:"schema" yaml:"schema"`
	Name   string `json:"name" yaml:"name"`
	Column string `json:"column" yaml:"column"`
}

func (s *Sequence) Ref() TableRef {
	return NewTableRef(s.Schema, s.Name)
}
