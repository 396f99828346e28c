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
	"fmt"
	"io"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
)

// Printer receives the progress of a move. Every line in dry-run mode uses the "Would" phrasing.
type Printer interface {
	DryRunStarted()
	SchemaCreated(schema string, dryRun bool)
	ForeignKeysFound(count int)
	ForeignKeyDropped(fk *catalog.ForeignKey, dryRun bool)
	TableMoved(statement, schema string, dryRun bool)
	SequenceRelocated(seq *catalog.Sequence, schema string, dryRun bool)
	ForeignKeyRecreated(fk *catalog.ForeignKey, dryRun bool)
	Completed(dryRun bool)
}

// TextPrinter writes the progress as plain lines
type TextPrinter struct {
	w io.Writer
}

func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{w: w}
}

func (p *TextPrinter) println(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *TextPrinter) DryRunStarted() {
	p.println("DRY RUN MODE - No changes will be made")
}

func (p *TextPrinter) SchemaCreated(schema string, dryRun bool) {
	if dryRun {
		p.println("Would create schema '%s'", schema)
		return
	}
	p.println("Created schema '%s'", schema)
}

func (p *TextPrinter) ForeignKeysFound(count int) {
	p.println("Found %d foreign key(s)", count)
}

func (p *TextPrinter) ForeignKeyDropped(fk *catalog.ForeignKey, dryRun bool) {
	if dryRun {
		p.println("Would drop FK: %s", fk.Name)
		return
	}
	p.println("Dropped FK: %s", fk.Name)
}

func (p *TextPrinter) TableMoved(statement, schema string, dryRun bool) {
	if dryRun {
		p.println("Would execute: %s", statement)
		return
	}
	p.println("Table moved to schema '%s'", schema)
}

func (p *TextPrinter) SequenceRelocated(seq *catalog.Sequence, schema string, dryRun bool) {
	if dryRun {
		p.println("Would relocate sequence %s to schema '%s'", seq.Ref(), schema)
		return
	}
	p.println("Relocated sequence %s to schema '%s'", seq.Ref(), schema)
}

func (p *TextPrinter) ForeignKeyRecreated(fk *catalog.ForeignKey, dryRun bool) {
	if dryRun {
		p.println("Would recreate FK: %s → %s", fk.Name, fk.ForeignTableRef())
		return
	}
	p.println("Recreated FK: %s → %s", fk.Name, fk.ForeignTableRef())
}

func (p *TextPrinter) Completed(dryRun bool) {
	if dryRun {
		p.println("DRY RUN completed - No changes were made")
		return
	}
	p.println("Table moved successfully")
}

// NopPrinter discards the progress, it is used for structured output formats
type NopPrinter struct{}

func (NopPrinter) DryRunStarted() {}
func (NopPrinter) SchemaCreated(string, bool) {}
func (NopPrinter) ForeignKeysFound(int) {}
func (NopPrinter) ForeignKeyDropped(*catalog.ForeignKey, bool) {}
func (NopPrinter) TableMoved(string, string, bool) {}
func (NopPrinter) SequenceRelocated(*catalog.Sequence, string, bool) {}
func (NopPrinter) ForeignKeyRecreated(*catalog.ForeignKey, bool) {}
func (NopPrinter) Completed(bool) {}
