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

package move_table

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdInternals "github.com/greenmaskio/schemashift/internal/db/postgres/cmd"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/utils/logger"
)

var (
	Cmd = &cobra.Command{
		Use:   "move-table [flags] table",
		Args:  cobra.ExactArgs(1),
		Short: "move a table to another schema, recreating its foreign keys",
		Run: func(cmd *cobra.Command, args []string) {
			if err := logger.SetLogLevel(Config.Log.Level, Config.Log.Format); err != nil {
				log.Fatal().Err(err).Msg("")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			options.Table = args[0]
			if err := cmdInternals.NewMoveTable(Config, options).Run(ctx); err != nil {
				logger.Fatal(err, Config.Log.Verbose)
			}
		},
	}
	Config  = domains.NewConfig()
	options = &cmdInternals.MoveTableOptions{}
)

func init() {
	Cmd.Flags().StringP("from", "", Config.Mover.SourceSchema, "source schema")
	Cmd.Flags().StringP("to", "", Config.Mover.DestinationSchema, "destination schema")
	Cmd.Flags().BoolP("create-schema", "", false, "create the destination schema when it does not exist")
	Cmd.Flags().StringP("lock-timeout", "", "", "lock_timeout of the move transaction (e.g. 5s, 500ms)")
	Cmd.Flags().BoolP("log-queries", "", false, "log every executed statement at info level")

	for flagName, key := range map[string]string{
		"from":          "mover.source_schema",
		"to":            "mover.destination_schema",
		"create-schema": "mover.create_schema",
		"lock-timeout":  "mover.lock_timeout",
		"log-queries":   "mover.log_queries",
	} {
		if err := viper.BindPFlag(key, Cmd.Flags().Lookup(flagName)); err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}

	Cmd.Flags().StringVarP(&options.Model, "model", "m", "", `model class, e.g. App\Models\Order`)
	Cmd.Flags().BoolVarP(&options.DryRun, "dry-run", "", false, "run the move in a transaction that is rolled back")
	Cmd.Flags().BoolVarP(&options.Force, "force", "f", false, "do not ask for a confirmation")
	Cmd.Flags().StringVarP(&options.Format, "format", "", cmdInternals.FormatText, "output format [text|yaml|json]")
}
