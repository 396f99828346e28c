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

package domains

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/greenmaskio/schemashift/internal/storages/directory"
	"github.com/greenmaskio/schemashift/internal/storages/s3"
)

var (
	Cfg  *Config
	once sync.Once
)

const (
	defaultTempDirectory     = "/tmp"
	defaultStorageType       = "directory"
	defaultSourceSchema      = "external"
	defaultDestinationSchema = "public"
	defaultModelsDir         = "app/Models"
	defaultModelsDialect     = "eloquent"
	defaultModelsJsonPath    = "tables"
	defaultMigrationDir      = "database/migrations"
	defaultMigrationsTable   = "migrations"
	defaultHost              = "localhost"
	defaultPort              = 5432
	defaultSchema            = "public"
)

const (
	StorageTypeDirectory = "directory"
	StorageTypeS3        = "s3"
)

func NewConfig() *Config {
	once.Do(
		func() {
			Cfg = &Config{
				Log: LogConfig{
					Level:  "info",
					Format: "text",
				},
				Common: Common{
					TempDirectory: defaultTempDirectory,
				},
				Connection: Connection{
					Host: defaultHost,
					Port: defaultPort,
				},
				Mover: Mover{
					SourceSchema:      defaultSourceSchema,
					DestinationSchema: defaultDestinationSchema,
				},
				Models: Models{
					Dir:      defaultModelsDir,
					Dialect:  defaultModelsDialect,
					JsonPath: defaultModelsJsonPath,
				},
				Migration: Migration{
					Dir: defaultMigrationDir,
				},
				Dump: Dump{
					MigrationsTable: defaultMigrationsTable,
				},
				Storage: StorageConfig{
					Type:      defaultStorageType,
					S3:        s3.NewConfig(),
					Directory: directory.NewConfig(),
				},
			}
		},
	)
	return Cfg
}

type Config struct {
	Log        LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Common     Common        `mapstructure:"common" yaml:"common" json:"common"`
	Connection Connection    `mapstructure:"connection" yaml:"connection" json:"connection"`
	Mover      Mover         `mapstructure:"mover" yaml:"mover" json:"mover"`
	Models     Models        `mapstructure:"models" yaml:"models" json:"models"`
	Migration  Migration     `mapstructure:"migration" yaml:"migration" json:"migration"`
	Dump       Dump          `mapstructure:"dump" yaml:"dump" json:"dump"`
	Storage    StorageConfig `mapstructure:"storage" yaml:"storage" json:"storage"`
}

type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format,omitempty"`
	Level  string `mapstructure:"level" yaml:"level" json:"level,omitempty"`
	// Verbose - print the error stack trace on failure
	Verbose bool `mapstructure:"verbose" yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

type Common struct {
	PgBinPath     string `mapstructure:"pg_bin_path" yaml:"pg_bin_path,omitempty" json:"pg_bin_path,omitempty"`
	TempDirectory string `mapstructure:"tmp_dir" yaml:"tmp_dir,omitempty" json:"tmp_dir,omitempty"`
}

// SearchPath - ordered schema list. It is decoded from a comma separated string or from a list.
type SearchPath []string

type Connection struct {
	DBName     string     `mapstructure:"dbname" yaml:"dbname" json:"dbname"`
	Host       string     `mapstructure:"host" yaml:"host" json:"host"`
	Port       int        `mapstructure:"port" yaml:"port" json:"port"`
	Username   string     `mapstructure:"username" yaml:"username" json:"username"`
	Password   string     `mapstructure:"password" yaml:"password" json:"-"`
	SSLMode    string     `mapstructure:"sslmode" yaml:"sslmode,omitempty" json:"sslmode,omitempty"`
	SearchPath SearchPath `mapstructure:"search_path" yaml:"search_path,omitempty" json:"search_path,omitempty"`
}

// GetPgDSN - connection URL understood by pgx. The password is kept out of it when it is not set so
// the libpq fallbacks (PGPASSWORD, .pgpass) keep working.
func (c *Connection) GetPgDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if len(c.SearchPath) > 0 {
		q.Set("search_path", strings.Join(c.SearchPath, ","))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// DefaultSchema - the schema unqualified names resolve to
func (c *Connection) DefaultSchema() string {
	if len(c.SearchPath) > 0 && c.SearchPath[0] != "" {
		return c.SearchPath[0]
	}
	return defaultSchema
}

// Env - libpq variables for the external utilities
func (c *Connection) Env() []string {
	var env []string
	if c.Password != "" {
		env = append(env, fmt.Sprintf("PGPASSWORD=%s", c.Password))
	}
	if c.SSLMode != "" {
		env = append(env, fmt.Sprintf("PGSSLMODE=%s", c.SSLMode))
	}
	return env
}

type Mover struct {
	SourceSchema      string `mapstructure:"source_schema" yaml:"source_schema" json:"source_schema"`
	DestinationSchema string `mapstructure:"destination_schema" yaml:"destination_schema" json:"destination_schema"`
	CreateSchema      bool   `mapstructure:"create_schema" yaml:"create_schema" json:"create_schema,omitempty"`
	LockTimeout       string `mapstructure:"lock_timeout" yaml:"lock_timeout,omitempty" json:"lock_timeout,omitempty"`
	LogQueries        bool   `mapstructure:"log_queries" yaml:"log_queries" json:"log_queries,omitempty"`
}

type Models struct {
	Dir      string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Dialect  string `mapstructure:"dialect" yaml:"dialect" json:"dialect"`
	Manifest string `mapstructure:"manifest" yaml:"manifest,omitempty" json:"manifest,omitempty"`
	JsonPath string `mapstructure:"json_path" yaml:"json_path,omitempty" json:"json_path,omitempty"`
}

type Migration struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

type Dump struct {
	Path            string   `mapstructure:"path" yaml:"path,omitempty" json:"path,omitempty"`
	Schemas         []string `mapstructure:"schemas" yaml:"schemas,omitempty" json:"schemas,omitempty"`
	MigrationsTable string   `mapstructure:"migrations_table" yaml:"migrations_table" json:"migrations_table"`
	Prune           bool     `mapstructure:"prune" yaml:"prune" json:"prune,omitempty"`
	Compress        bool     `mapstructure:"compress" yaml:"compress" json:"compress,omitempty"`
	Pgzip           bool     `mapstructure:"pgzip" yaml:"pgzip" json:"pgzip,omitempty"`
	// Overwrite - replace an existing dump object instead of failing
	Overwrite       bool     `mapstructure:"overwrite" yaml:"overwrite" json:"overwrite,omitempty"`
	// Verify - read the stored object back and compare its size with the dumped size
	Verify          bool     `mapstructure:"verify" yaml:"verify" json:"verify,omitempty"`
}

type StorageConfig struct {
	Type      string            `mapstructure:"type" yaml:"type" json:"type,omitempty"`
	S3        *s3.Config        `mapstructure:"s3" json:"s3,omitempty" yaml:"s3"`
	Directory *directory.Config `mapstructure:"directory" json:"directory,omitempty" yaml:"directory"`
}
