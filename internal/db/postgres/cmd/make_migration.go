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

	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/migration"
)

type MakeMigrationOptions struct {
	Table string
	From  string
	To    string
	Dir   string
}

type MakeMigration struct {
	opts *MakeMigrationOptions
	out  io.Writer
}

func NewMakeMigration(cfg *domains.Config, opts *MakeMigrationOptions) *MakeMigration {
	if opts.Dir == "" {
		opts.Dir = cfg.Migration.Dir
	}
	return &MakeMigration{
		opts: opts,
		out:  os.Stdout,
	}
}

func (mm *MakeMigration) SetOutput(w io.Writer) *MakeMigration {
	mm.out = w
	return mm
}

func (mm *MakeMigration) Run(_ context.Context) (*migration.Migration, error) {
	g, err := migration.NewGenerator(mm.opts.Dir)
	if err != nil {
		return nil, err
	}
	m, err := g.Generate(mm.opts.Table, mm.opts.From, mm.opts.To)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(mm.out, "Migration created: %s\n", m.UpPath)
	_, _ = fmt.Fprintf(mm.out, "Migration created: %s\n", m.DownPath)
	return m, nil
}
