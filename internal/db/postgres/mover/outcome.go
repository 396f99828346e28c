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
	"github.com/google/uuid"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
)

type State string

const (
	StateInit           State = "init"
	StateValidated      State = "validated"
	StateFKsCaptured    State = "fks_captured"
	StateFKsDropped     State = "fks_dropped"
	StateTableRelocated State = "table_relocated"
	StateFKsRecreated   State = "fks_recreated"
	StateCommitted      State = "committed"
	StateRolledBack     State = "rolled_back"
	StateRejected       State = "rejected"
)

// Request - a single table move
type Request struct {
	Table      string
	SchemaFrom string
	SchemaTo   string
	DryRun     bool
	// CreateSchema - create SchemaTo inside the move transaction when it does not exist
	CreateSchema bool
}

func (r *Request) Source() catalog.TableRef {
	return catalog.NewTableRef(r.SchemaFrom, r.Table)
}

func (r *Request) Destination() catalog.TableRef {
	return catalog.NewTableRef(r.SchemaTo, r.Table)
}

// ProcessedForeignKey - foreign key that was dropped and recreated during the move
type ProcessedForeignKey struct {
	Name          string `json:"name" yaml:"name"`
	ForeignSchema string `json:"foreign_schema" yaml:"foreign_schema"`
	ForeignTable  string `json:"foreign_table" yaml:"foreign_table"`
}

type Outcome struct {
	OperationID   uuid.UUID             `json:"operation_id" yaml:"operation_id"`
	Table         string                `json:"table" yaml:"table"`
	SchemaFrom    string                `json:"schema_from" yaml:"schema_from"`
	SchemaTo      string                `json:"schema_to" yaml:"schema_to"`
	DryRun        bool                  `json:"dry_run" yaml:"dry_run"`
	SchemaCreated bool                  `json:"schema_created" yaml:"schema_created"`
	ForeignKeys   []ProcessedForeignKey `json:"foreign_keys" yaml:"foreign_keys"`
	Sequences     []string              `json:"sequences" yaml:"sequences"`
	State         State                 `json:"state" yaml:"state"`
	Statements    []string              `json:"statements" yaml:"statements"`
}

func newOutcome(req *Request) *Outcome {
	return &Outcome{
		OperationID: uuid.New(),
		Table:       req.Table,
		SchemaFrom:  req.SchemaFrom,
		SchemaTo:    req.SchemaTo,
		DryRun:      req.DryRun,
		ForeignKeys: []ProcessedForeignKey{},
		Sequences:   []string{},
		Statements:  []string{},
		State:       StateInit,
	}
}

