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
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
)

func quoteIdents(names []string) string {
	res := make([]string, 0, len(names))
	for _, n := range names {
		res = append(res, pgx.Identifier{n}.Sanitize())
	}
	return strings.Join(res, ", ")
}

func createSchemaStatement(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA %s", pgx.Identifier{schema}.Sanitize())
}

// setLockTimeoutStatement rounds d up to whole milliseconds. Zero disables the timeout in
// PostgreSQL, so a positive duration never renders as 0ms.
func setLockTimeoutStatement(d time.Duration) string {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}

func dropConstraintStatement(table catalog.TableRef, name string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s DROP CONSTRAINT %s", table.Identifier(), pgx.Identifier{name}.Sanitize(),
	)
}

func setTableSchemaStatement(table catalog.TableRef, schema string) string {
	return fmt.Sprintf("ALTER TABLE %s SET SCHEMA %s", table.Identifier(), pgx.Identifier{schema}.Sanitize())
}

func setSequenceSchemaStatement(seq catalog.TableRef, schema string) string {
	return fmt.Sprintf("ALTER SEQUENCE %s SET SCHEMA %s", seq.Identifier(), pgx.Identifier{schema}.Sanitize())
}

// addForeignKeyStatement renders the constraint the same way it was defined: columns,
// referenced relation, match type, actions, deferrability and validation state.
func addForeignKeyStatement(table catalog.TableRef, fk *catalog.ForeignKey) (string, error) {
	if err := fk.UpdateRule.Validate(); err != nil {
		return "", fmt.Errorf("foreign key %s on update: %w", fk.Name, err)
	}
	if err := fk.DeleteRule.Validate(); err != nil {
		return "", fmt.Errorf("foreign key %s on delete: %w", fk.Name, err)
	}
	if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.ForeignColumns) {
		return "", fmt.Errorf(
			"foreign key %s has mismatched column lists (%d and %d)",
			fk.Name, len(fk.Columns), len(fk.ForeignColumns),
		)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		table.Identifier(),
		pgx.Identifier{fk.Name}.Sanitize(),
		quoteIdents(fk.Columns),
		fk.ForeignTableRef().Identifier(),
		quoteIdents(fk.ForeignColumns),
	))
	if fk.MatchFull {
		sb.WriteString(" MATCH FULL")
	}
	sb.WriteString(fmt.Sprintf(" ON UPDATE %s ON DELETE %s", fk.UpdateRule, fk.DeleteRule))
	if fk.Deferrable {
		sb.WriteString(" DEFERRABLE")
		if fk.InitiallyDeferred {
			sb.WriteString(" INITIALLY DEFERRED")
		}
	}
	if !fk.Validated {
		sb.WriteString(" NOT VALID")
	}
	return sb.String(), nil
}
