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
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/greenmaskio/schemashift/internal/db/postgres/catalog"
	"github.com/greenmaskio/schemashift/internal/db/postgres/mover"
	"github.com/greenmaskio/schemashift/internal/db/postgres/pgdump"
	"github.com/greenmaskio/schemashift/internal/db/postgres/utils"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/storages"
	"github.com/greenmaskio/schemashift/internal/utils/ioutils"
)

const (
	defaultDumpDir    = "schema"
	gzipFileExtension = ".gz"
)

var (
	ErrDumpExists       = errors.New("dump already exists")
	ErrDumpVerification = errors.New("dump verification failed")
)

type DumpSchemaOptions struct {
	Schemas   []string
	Path      string
	Prune     bool
	Compress  bool
	Pgzip     bool
	Overwrite bool
	Verify    bool
}

// TableFinder locates the schema that holds a table
type TableFinder interface {
	FindTableSchema(ctx context.Context, table string, schemas []string) (string, bool, error)
}

type DumpSchemaResult struct {
	Path            string   `json:"path" yaml:"path"`
	Schemas         []string `json:"schemas" yaml:"schemas"`
	MigrationsTable string   `json:"migrations_table,omitempty" yaml:"migrations_table,omitempty"`
	Size            int64    `json:"size" yaml:"size"`
	StoredSize      int64    `json:"stored_size" yaml:"stored_size"`
	Pruned          []string `json:"pruned,omitempty" yaml:"pruned,omitempty"`
}

type DumpSchema struct {
	cfg    *domains.Config
	opts   *DumpSchemaOptions
	st     storages.Storager
	pgDump *pgdump.PgDump
	finder TableFinder
	out    io.Writer
}

func NewDumpSchema(cfg *domains.Config, opts *DumpSchemaOptions, st storages.Storager) *DumpSchema {
	if len(opts.Schemas) == 0 {
		opts.Schemas = cfg.Dump.Schemas
	}
	if len(opts.Schemas) == 0 {
		opts.Schemas = []string{cfg.Connection.DefaultSchema()}
		if len(cfg.Connection.SearchPath) > 0 {
			opts.Schemas = cfg.Connection.SearchPath
		}
	}
	if opts.Path == "" {
		opts.Path = cfg.Dump.Path
	}
	if opts.Path == "" {
		opts.Path = path.Join(defaultDumpDir, fmt.Sprintf("%s-schema.sql", cfg.Connection.DBName))
	}
	opts.Prune = opts.Prune || cfg.Dump.Prune
	opts.Overwrite = opts.Overwrite || cfg.Dump.Overwrite
	opts.Verify = opts.Verify || cfg.Dump.Verify
	opts.Pgzip = opts.Pgzip || cfg.Dump.Pgzip
	opts.Compress = opts.Compress || cfg.Dump.Compress || opts.Pgzip
	if opts.Compress && filepath.Ext(opts.Path) != gzipFileExtension {
		opts.Path += gzipFileExtension
	}
	return &DumpSchema{
		cfg:    cfg,
		opts:   opts,
		st:     st,
		pgDump: pgdump.NewPgDump(cfg.Common.PgBinPath),
		out:    os.Stdout,
	}
}

func (d *DumpSchema) SetOutput(w io.Writer) *DumpSchema {
	d.out = w
	return d
}

// SetTableFinder overrides the catalog lookup of the migrations table
func (d *DumpSchema) SetTableFinder(f TableFinder) *DumpSchema {
	d.finder = f
	return d
}

func (d *DumpSchema) Run(ctx context.Context) (*DumpSchemaResult, error) {
	dir, name := path.Split(d.opts.Path)
	st := d.st
	if dir != "" {
		st = d.st.SubStorage(path.Clean(dir), true)
	}
	exists, err := st.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cannot check dump existence: %w", err)
	}
	if exists && !d.opts.Overwrite {
		return nil, fmt.Errorf("%s: %w: use --overwrite to replace it", d.opts.Path, ErrDumpExists)
	}

	if d.finder == nil {
		conn, err := utils.Connect(ctx, d.cfg.Connection.GetPgDSN())
		if err != nil {
			return nil, pkgerrors.WithStack(fmt.Errorf("%w: %w", mover.ErrConnectionFailure, err))
		}
		defer func() {
			if err := conn.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("cannot close connection")
			}
		}()
		d.finder = catalog.NewInspector(conn.GetConn())
	}

	tmpDir, err := os.MkdirTemp(d.cfg.Common.TempDirectory, "schemashift-dump-")
	if err != nil {
		return nil, fmt.Errorf("cannot create temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn().Err(err).Str("Dir", tmpDir).Msg("cannot remove temporary directory")
		}
	}()

	res := &DumpSchemaResult{
		Path:    d.opts.Path,
		Schemas: d.opts.Schemas,
	}

	parts := []string{path.Join(tmpDir, "schema.sql")}
	if err = d.pgDump.Run(ctx, d.pgDumpOptions(parts[0], func(o *pgdump.Options) {
		o.SchemaOnly = true
		o.Schema = d.opts.Schemas
	}), d.cfg.Connection.Env()); err != nil {
		return nil, fmt.Errorf("schema dump failed: %w", err)
	}

	migrationsSchema, found, err := d.finder.FindTableSchema(ctx, d.cfg.Dump.MigrationsTable, d.opts.Schemas)
	if err != nil {
		return nil, err
	}
	if found {
		table := catalog.NewTableRef(migrationsSchema, d.cfg.Dump.MigrationsTable)
		res.MigrationsTable = table.String()
		parts = append(parts, path.Join(tmpDir, "migrations.sql"))
		if err = d.pgDump.Run(ctx, d.pgDumpOptions(parts[1], func(o *pgdump.Options) {
			o.DataOnly = true
			o.Table = []string{table.Identifier()}
		}), d.cfg.Connection.Env()); err != nil {
			return nil, fmt.Errorf("migrations table dump failed: %w", err)
		}
	} else {
		log.Debug().
			Str("Table", d.cfg.Dump.MigrationsTable).
			Strs("Schemas", d.opts.Schemas).
			Msg("migrations table not found: skipping data dump")
	}

	if res.Size, err = d.store(ctx, st, name, parts); err != nil {
		d.cleanup(ctx, st, name)
		return nil, err
	}
	stat, err := st.Stat(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cannot stat stored dump: %w", err)
	}
	if !stat.Exist {
		return nil, fmt.Errorf("%s: %w: object not found after upload", d.opts.Path, ErrDumpVerification)
	}
	res.StoredSize = stat.Size
	if d.opts.Verify {
		if err = d.verify(ctx, st, name, res.Size); err != nil {
			return nil, err
		}
	}
	_, _ = fmt.Fprintf(d.out, "Schema dumped to: %s\n", path.Join(st.GetCwd(), name))

	if d.opts.Prune {
		if res.Pruned, err = d.prune(); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(d.out, "Pruned %d migration file(s) from %s\n", len(res.Pruned), d.cfg.Migration.Dir)
	}
	return res, nil
}

func (d *DumpSchema) pgDumpOptions(fileName string, apply func(o *pgdump.Options)) *pgdump.Options {
	o := &pgdump.Options{
		FileName:     fileName,
		NoOwner:      true,
		NoPrivileges: true,
		DbName:       d.cfg.Connection.DBName,
		Host:         d.cfg.Connection.Host,
		Port:         d.cfg.Connection.Port,
		UserName:     d.cfg.Connection.Username,
	}
	apply(o)
	return o
}

// store concatenates the dump parts into the storage object. It returns the uncompressed size.
func (d *DumpSchema) store(ctx context.Context, st storages.Storager, name string, parts []string) (int64, error) {
	pr, pw := io.Pipe()
	var w io.WriteCloser = pw
	var gz *ioutils.GzipWriter
	if d.opts.Compress {
		gz = ioutils.NewGzipWriter(pw, d.opts.Pgzip)
		w = gz
	}

	var written int64
	eg, gtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := st.PutObject(gtx, name, pr); err != nil {
			_ = pr.CloseWithError(err)
			return fmt.Errorf("cannot store dump: %w", err)
		}
		return nil
	})
	eg.Go(func() (err error) {
		defer func() {
			if err != nil {
				_ = pw.CloseWithError(err)
			}
			if closeErr := w.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		for _, p := range parts {
			n, err := copyFile(w, p)
			if err != nil {
				return err
			}
			written += n
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	if gz != nil {
		written = gz.Written()
	}
	return written, nil
}

// cleanup removes a partially written dump
func (d *DumpSchema) cleanup(ctx context.Context, st storages.Storager, name string) {
	exists, err := st.Exists(ctx, name)
	if err != nil || !exists {
		return
	}
	if err = st.Delete(ctx, name); err != nil {
		log.Warn().Err(err).Str("Path", d.opts.Path).Msg("cannot remove partial dump")
	}
}

// verify reads the stored dump back and compares the uncompressed size with the dumped size
func (d *DumpSchema) verify(ctx context.Context, st storages.Storager, name string, size int64) error {
	obj, err := st.GetObject(ctx, name)
	if err != nil {
		return fmt.Errorf("cannot read stored dump: %w", err)
	}
	var r io.ReadCloser = obj
	if d.opts.Compress {
		if r, err = ioutils.NewGzipReader(obj, d.opts.Pgzip); err != nil {
			return fmt.Errorf("%w: %w", ErrDumpVerification, err)
		}
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Msg("cannot close stored dump")
		}
	}()
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDumpVerification, err)
	}
	if n != size {
		return fmt.Errorf("%w: stored %d bytes, dumped %d bytes", ErrDumpVerification, n, size)
	}
	log.Debug().Str("Path", d.opts.Path).Int64("Size", n).Msg("dump verified")
	return nil
}

func copyFile(w io.Writer, name string) (int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, fmt.Errorf("cannot open dump part: %w", err)
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("cannot copy dump part: %w", err)
	}
	return n, nil
}

func (d *DumpSchema) prune() ([]string, error) {
	entries, err := os.ReadDir(d.cfg.Migration.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read migrations directory: %w", err)
	}
	var pruned []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(d.cfg.Migration.Dir, e.Name())
		if err = os.Remove(p); err != nil {
			return pruned, fmt.Errorf("cannot remove migration file: %w", err)
		}
		log.Debug().Str("File", p).Msg("migration pruned")
		pruned = append(pruned, p)
	}
	return pruned, nil
}
