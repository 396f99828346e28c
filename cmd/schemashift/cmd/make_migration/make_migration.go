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

package make_migration

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
		Use:   "make-migration [flags] table",
		Args:  cobra.ExactArgs(1),
		Short: "generate up and down SQL migrations moving a table between schemas",
		Run: func(cmd *cobra.Command, args []string) {
			if err := logger.SetLogLevel(Config.Log.Level, Config.Log.Format); err != nil {
				log.Fatal().Err(err).Msg("")
			}

			options.Table = args[0]
			if _, err := cmdInternals.NewMakeMigration(Config, options).Run(context.Background()); err != nil {
				logger.Fatal(err, Config.Log.Verbose)
			}
		},
	}
	Config  = domains.NewConfig()
	options = &cmdInternals.MakeMigrationOptions{}
)

func init() {
	Cmd.Flags().StringVarP(&options.From, "from", "", "", "source schema")
	Cmd.Flags().StringVarP(&options.To, "to", "", "", "destination schema")
	Cmd.Flags().StringP("dir", "", Config.Migration.Dir, "migrations directory")
	if err := viper.BindPFlag("migration.dir", Cmd.Flags().Lookup("dir")); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
