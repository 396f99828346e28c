// Copyright 2023 Greenmask
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

package pgdump

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/utils/cmd_runner"
)

const pgDumpExecutable = "pg_dump"

const pgDefaultPort = 5432

type PgDump struct {
	BinPath string
}

func NewPgDump(binPath string) *PgDump {
	return &PgDump{
		BinPath: binPath,
	}
}

// Run executes pg_dump with the options. env is appended to the process environment, it is the
// way the password reaches pg_dump.
func (pd *PgDump) Run(ctx context.Context, options *Options, env []string) error {
	executable := path.Join(pd.BinPath, pgDumpExecutable)
	log.Debug().Msgf("pg_dump: %s %s", executable, strings.Join(options.GetParams(), " "))
	return cmd_runner.RunWithEnv(ctx, &log.Logger, env, executable, options.GetParams()...)
}

type Options struct {
	// General options:
	FileName        string
	LockWaitTimeout int
	Verbose         bool

	// Options controlling the output content
	DataOnly     bool
	SchemaOnly   bool
	Schema       []string
	Table        []string
	NoOwner      bool
	NoPrivileges bool
	NoComments   bool

	// Connection options:
	DbName     string
	Host       string
	Port       int
	UserName   string
	NoPassword bool
}

func (o *Options) GetParams() []string {
	var args []string

	// General options:
	if o.FileName != "" {
		args = append(args, "--file", o.FileName)
	}
	if o.LockWaitTimeout > 0 {
		args = append(args, "--lock-wait-timeout", strconv.FormatInt(int64(o.LockWaitTimeout), 10))
	}
	if o.Verbose {
		args = append(args, "--verbose")
	}

	// Options controlling the output content
	if o.DataOnly {
		args = append(args, "--data-only")
	}
	if o.SchemaOnly {
		args = append(args, "--schema-only")
	}
	for _, item := range o.Schema {
		args = append(args, "--schema", item)
	}
	for _, item := range o.Table {
		args = append(args, "--table", item)
	}
	if o.NoOwner {
		args = append(args, "--no-owner")
	}
	if o.NoPrivileges {
		args = append(args, "--no-privileges")
	}
	if o.NoComments {
		args = append(args, "--no-comments")
	}

	// Connection options:
	if o.DbName != "" {
		args = append(args, "--dbname", o.DbName)
	}
	if o.Host != "" {
		args = append(args, "--host", o.Host)
	}
	if o.Port != 0 && o.Port != pgDefaultPort {
		args = append(args, "--port", strconv.FormatInt(int64(o.Port), 10))
	}
	if o.UserName != "" {
		args = append(args, "--username", o.UserName)
	}
	if o.NoPassword {
		args = append(args, "--no-password")
	}

	return args
}
