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

package list_tables

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cmdInternals "github.com/greenmaskio/schemashift/internal/db/postgres/cmd"
	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/utils/logger"
)

var (
	Cmd = &cobra.Command{
		Use:   "list-tables [flags] [schema]",
		Args:  cobra.MaximumNArgs(1),
		Short: "list tables of a schema with their sizes",
		Run: func(cmd *cobra.Command, args []string) {
			if err := logger.SetLogLevel(Config.Log.Level, Config.Log.Format); err != nil {
				log.Fatal().Err(err).Msg("")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if len(args) > 0 {
				options.Schema = args[0]
			}
			if err := cmdInternals.NewListTables(Config, options).Run(ctx); err != nil {
				logger.Fatal(err, Config.Log.Verbose)
			}
		},
	}
	Config  = domains.NewConfig()
	options = &cmdInternals.ListTablesOptions{}
)

func init() {
	Cmd.Flags().BoolVarP(&options.All, "all", "a", false, "list tables of every user schema")
	Cmd.Flags().StringVarP(
		&options.Where, "where", "w", "",
		`filter expression over name, schema, size and size_bytes, e.g. "size_bytes > 10 * MB"`,
	)
	Cmd.Flags().StringVarP(&options.Format, "format", "", cmdInternals.FormatText, "output format [text|yaml|json]")
}
