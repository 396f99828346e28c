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

package dump_schema

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdInternals "github.com/greenmaskio/schemashift/internal/db/postgres/cmd"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/storages/builder"
	"github.com/greenmaskio/schemashift/internal/utils/logger"
)

var (
	Cmd = &cobra.Command{
		Use:   "dump-schema",
		Args:  cobra.NoArgs,
		Short: "dump the database schema and the migrations table into the storage",
		Run: func(cmd *cobra.Command, args []string) {
			if err := logger.SetLogLevel(Config.Log.Level, Config.Log.Format); err != nil {
				log.Fatal().Err(err).Msg("")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if Config.Common.TempDirectory == "" {
				log.Fatal().Msg("common.tmp_dir cannot be empty")
			}

			st, err := builder.GetStorage(ctx, &Config.Storage, &Config.Log)
			if err != nil {
				log.Fatal().Err(err).Msg("error building storage")
			}

			if _, err = cmdInternals.NewDumpSchema(Config, &cmdInternals.DumpSchemaOptions{}, st).Run(ctx); err != nil {
				logger.Fatal(err, Config.Log.Verbose)
			}
		},
	}
	Config = domains.NewConfig()
)

func init() {
	Cmd.Flags().StringSliceP("schemas", "n", nil, "schemas to dump, search_path by default")
	Cmd.Flags().StringP("path", "", "", "object path in the storage, schema/<dbname>-schema.sql by default")
	Cmd.Flags().BoolP("prune", "", false, "delete the migration files after the dump")
	Cmd.Flags().BoolP("compress", "", false, "gzip the dump")
	Cmd.Flags().BoolP("pgzip", "", false, "use parallel gzip, implies --compress")
	Cmd.Flags().BoolP("overwrite", "", false, "replace the dump if it already exists in the storage")
	Cmd.Flags().BoolP("verify", "", false, "read the stored dump back and check its size")
	Cmd.Flags().StringP("pg-bin-path", "", "", "directory with pg_dump")
	Cmd.Flags().StringP("storage-path", "", Config.Storage.Directory.Path, "directory storage root")

	for flagName, key := range map[string]string{
		"schemas":      "dump.schemas",
		"path":         "dump.path",
		"prune":        "dump.prune",
		"compress":     "dump.compress",
		"pgzip":        "dump.pgzip",
		"overwrite":    "dump.overwrite",
		"verify":       "dump.verify",
		"pg-bin-path":  "common.pg_bin_path",
		"storage-path": "storage.directory.path",
	} {
		if err := viper.BindPFlag(key, Cmd.Flags().Lookup(flagName)); err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}
}
