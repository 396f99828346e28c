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

package migration

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	timestampLayout = "20060102150405"
	dirMode         = 0750
	fileMode        = 0640
)

var (
	ErrSchemaRequired = errors.New("both source and destination schemas are required")
	ErrSameSchema     = errors.New("source and destination schemas must be different")
	ErrTableRequired  = errors.New("table name is required")
)

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

const moveTemplate = `-- Move {{ ident .Table }} from {{ ident .From }} to {{ ident .To }}
-- Generated by schemashift at {{ .CreatedAt | date "2006-01-02 15:04:05" }}
ALTER TABLE {{ ident .From .Table }} SET SCHEMA {{ ident .To }};

DO $$
DECLARE
    seq RECORD;
BEGIN
    FOR seq IN
        SELECT s.relname
        FROM pg_catalog.pg_class s
        JOIN pg_catalog.pg_namespace sn ON sn.oid = s.relnamespace
        JOIN pg_catalog.pg_depend d ON d.objid = s.oid AND d.deptype IN ('a', 'i')
        JOIN pg_catalog.pg_class t ON t.oid = d.refobjid
        JOIN pg_catalog.pg_namespace tn ON tn.oid = t.relnamespace
        WHERE s.relkind = 'S'
          AND sn.nspname = {{ literal .From }}
          AND tn.nspname = {{ literal .To }}
          AND t.relname = {{ literal .Table }}
    LOOP
        EXECUTE format('ALTER SEQUENCE %I.%I SET SCHEMA %I', {{ literal .From }}, seq.relname, {{ literal .To }});
    END LOOP;
END
$$;
`

type templateData struct {
	Table     string
	From      string
	To        string
	CreatedAt time.Time
}

// Migration - pair of generated files
type Migration struct {
	Name     string `json:"name" yaml:"name"`
	UpPath   string `json:"up_path" yaml:"up_path"`
	DownPath string `json:"down_path" yaml:"down_path"`
}

type Generator struct {
	dir  string
	tmpl *template.Template
	now  func() time.Time
}

func NewGenerator(dir string) (*Generator, error) {
	funcs := sprig.TxtFuncMap()
	funcs["ident"] = func(parts ...string) string {
		return pgx.Identifier(parts).Sanitize()
	}
	funcs["literal"] = func(v string) string {
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	tmpl, err := template.New("move").Funcs(funcs).Parse(moveTemplate)
	if err != nil {
		return nil, fmt.Errorf("cannot parse migration template: %w", err)
	}
	return &Generator{
		dir:  dir,
		tmpl: tmpl,
		now:  time.Now,
	}, nil
}

func Validate(table, from, to string) error {
	if table == "" {
		return ErrTableRequired
	}
	if from == "" || to == "" {
		return ErrSchemaRequired
	}
	if from == to {
		return ErrSameSchema
	}
	return nil
}

// Render returns the up and down scripts. The down script is the move in the opposite direction.
func (g *Generator) Render(table, from, to string, createdAt time.Time) (up string, down string, err error) {
	if err = Validate(table, from, to); err != nil {
		return "", "", err
	}
	up, err = g.render(templateData{Table: table, From: from, To: to, CreatedAt: createdAt})
	if err != nil {
		return "", "", err
	}
	down, err = g.render(templateData{Table: table, From: to, To: from, CreatedAt: createdAt})
	if err != nil {
		return "", "", err
	}
	return up, down, nil
}

func (g *Generator) render(data templateData) (string, error) {
	buf := &bytes.Buffer{}
	if err := g.tmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("cannot render migration: %w", err)
	}
	return buf.String(), nil
}

// Generate writes <timestamp>_move_<table>_from_<from>_to_<to>.up.sql and the .down.sql pair
func (g *Generator) Generate(table, from, to string) (*Migration, error) {
	createdAt := g.now()
	up, down, err := g.Render(table, from, to, createdAt)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf(
		"%s_move_%s_from_%s_to_%s",
		createdAt.Format(timestampLayout), fileNamePart(table), fileNamePart(from), fileNamePart(to),
	)
	m := &Migration{
		Name:     name,
		UpPath:   filepath.Join(g.dir, name+".up.sql"),
		DownPath: filepath.Join(g.dir, name+".down.sql"),
	}

	if err = os.MkdirAll(g.dir, dirMode); err != nil {
		return nil, fmt.Errorf("cannot create migrations directory: %w", err)
	}
	if err = os.WriteFile(m.UpPath, []byte(up), fileMode); err != nil {
		return nil, fmt.Errorf("cannot write migration: %w", err)
	}
	if err = os.WriteFile(m.DownPath, []byte(down), fileMode); err != nil {
		return nil, fmt.Errorf("cannot write migration: %w", err)
	}
	log.Debug().
		Str("Up", m.UpPath).
		Str("Down", m.DownPath).
		Msg("migration written")
	return m, nil
}

func fileNamePart(v string) string {
	return strings.Trim(unsafeFileNameChars.ReplaceAllString(strings.ToLower(v), "_"), "_")
}
