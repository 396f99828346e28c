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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenmaskio/schemashift/cmd/schemashift/cmd/dump_schema"
	"github.com/greenmaskio/schemashift/cmd/schemashift/cmd/list_tables"
	"github.com/greenmaskio/schemashift/cmd/schemashift/cmd/make_migration"
	"github.com/greenmaskio/schemashift/cmd/schemashift/cmd/move_table"
	"github.com/greenmaskio/schemashift/internal/domains"
	configUtils "github.com/greenmaskio/schemashift/internal/utils/config"
)

const (
	appName               = "schemashift"
	defaultConfigFileName = "config.yml"
	defaultEnvFileName    = ".env"
)

// envBindings - environment variables understood besides the automatic CONNECTION_HOST style ones
var envBindings = map[string]string{
	"connection.host":          "PGHOST",
	"connection.port":          "PGPORT",
	"connection.username":      "PGUSER",
	"connection.dbname":        "PGDATABASE",
	"connection.password":      "PGPASSWORD",
	"connection.sslmode":       "PGSSLMODE",
	"connection.search_path":   "SCHEMASHIFT_SEARCH_PATH",
	"mover.source_schema":      "SCHEMASHIFT_SOURCE",
	"mover.destination_schema": "SCHEMASHIFT_DESTINATION",
	"mover.lock_timeout":       "SCHEMASHIFT_LOCK_TIMEOUT",
	"mover.log_queries":        "SCHEMASHIFT_LOG_QUERIES",
}

var (
	Version    string
	Commit     string
	CommitDate string

	RootCmd = &cobra.Command{
		Use:   appName,
		Short: "schemashift moves PostgreSQL tables between schemas keeping foreign keys and sequences",
		Long: "A tool that relocates PostgreSQL tables between schemas inside a single transaction. " +
			"Foreign keys are dropped and recreated against the new location, owned sequences follow " +
			"the table and application model files are updated. It also lists tables, generates " +
			"schema move migrations and dumps the schema for deployment",
		SilenceUsage: true,
	}
	cfgFile string
	envFile string
	Config  = domains.NewConfig()
)

func Execute() error {
	return RootCmd.Execute()
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				Commit = setting.Value
			}
			if setting.Key == "vcs.time" {
				CommitDate = setting.Value
			}
		}
	}
	if Version != "" {
		RootCmd.Version = fmt.Sprintf("%s %s %s", Version, Commit, CommitDate)
	} else {
		RootCmd.Version = fmt.Sprintf("%s %s", Commit, CommitDate)
	}

	cobra.OnInitialize(initConfig)
	// Removing short help flag from default
	RootCmd.PersistentFlags().BoolP("help", "", false, "help for schemashift")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with connection variables")
	RootCmd.PersistentFlags().StringP("log-format", "", "text", "logging format [text|json]")
	RootCmd.PersistentFlags().StringP("log-level", "", zerolog.LevelInfoValue,
		fmt.Sprintf(
			"logging level %s|%s|%s",
			zerolog.LevelDebugValue,
			zerolog.LevelInfoValue,
			zerolog.LevelWarnValue,
		),
	)
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print the stack trace of errors")

	RootCmd.PersistentFlags().StringP("host", "H", Config.Connection.Host, "database server host")
	RootCmd.PersistentFlags().IntP("port", "p", Config.Connection.Port, "database server port")
	RootCmd.PersistentFlags().StringP("username", "U", Config.Connection.Username, "database user name")
	RootCmd.PersistentFlags().StringP("dbname", "d", Config.Connection.DBName, "database to connect to")
	RootCmd.PersistentFlags().StringP("search-path", "", "", "comma separated search_path of the application")

	for flagName, key := range map[string]string{
		"log-format":  "log.format",
		"log-level":   "log.level",
		"verbose":     "log.verbose",
		"host":        "connection.host",
		"port":        "connection.port",
		"username":    "connection.username",
		"dbname":      "connection.dbname",
		"search-path": "connection.search_path",
	} {
		if err := viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(flagName)); err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}

	RootCmd.AddCommand(move_table.Cmd)
	RootCmd.AddCommand(list_tables.Cmd)
	RootCmd.AddCommand(make_migration.Cmd)
	RootCmd.AddCommand(dump_schema.Cmd)

	RootCmd.InitDefaultCompletionCmd()
	RootCmd.InitDefaultHelpCmd()
	RootCmd.InitDefaultVersionFlag()

	for _, c := range RootCmd.Commands() {
		if c.Name() == "completion" || c.Name() == "help" {
			c.DisableFlagParsing = true
			for _, subc := range c.Commands() {
				subc.DisableFlagParsing = true
			}
		}
	}
}

func loadEnvFile() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatal().Err(err).Str("File", envFile).Msg("error reading env file")
		}
		return
	}
	if _, err := os.Stat(defaultEnvFileName); err == nil {
		if err = godotenv.Load(defaultEnvFileName); err != nil {
			log.Warn().Err(err).Str("File", defaultEnvFileName).Msg("error reading env file")
		}
	}
}

// defaultConfigFile - $XDG_CONFIG_HOME/schemashift/config.yml when it exists
func defaultConfigFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(configDir, appName, defaultConfigFileName)
	if _, err = os.Stat(p); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("File", p).Msg("cannot access default config file")
		}
		return ""
	}
	return p
}

func initConfig() {
	loadEnvFile()

	if cfgFile == "" {
		cfgFile = defaultConfigFile()
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal().Err(err).Msg("error reading from config file")
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}

	if err := viper.Unmarshal(Config, configUtils.DecoderConfig); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
