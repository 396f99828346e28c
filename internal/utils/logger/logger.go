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

package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greenmaskio/schemashift/internal/utils/pgerrors"
	stringsUtils "github.com/greenmaskio/schemashift/internal/utils/strings"
)

const (
	LogFormatJsonValue = "json"
	LogFormatTextValue = "text"
)

const (
	detailWidth  = 100
	detailIndent = "    "
)

var errUnknownLogFormat = errors.New("unknown log format")

func SetLogLevel(logLevelStr string, logFormat string) error {

	var logLevel zerolog.Level
	switch logLevelStr {
	case zerolog.LevelDebugValue:
		logLevel = zerolog.DebugLevel
	case zerolog.LevelInfoValue:
		logLevel = zerolog.InfoLevel
	case zerolog.LevelWarnValue:
		logLevel = zerolog.WarnLevel
	default:
		return fmt.Errorf("unknown log level %s", logLevelStr)

	}

	var formatWriter io.Writer
	switch logFormat {
	case LogFormatJsonValue:
		formatWriter = os.Stderr
	case LogFormatTextValue, "":
		formatWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	default:
		return fmt.Errorf("format %s: %w", logFormat, errUnknownLogFormat)
	}

	if logLevelStr == zerolog.LevelDebugValue {
		log.Logger = zerolog.New(formatWriter).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Int("pid", os.Getpid()).Logger()
	} else {
		log.Logger = zerolog.New(formatWriter).
			Level(logLevel).
			With().
			Timestamp().
			Logger()
	}
	return nil
}

// Fatal prints a one-line error to stderr and exits with status 1. When verbose is set the
// full error chain is printed as well, including the stack trace recorded by pkg/errors.
func Fatal(err error, verbose bool) {
	PrintError(os.Stderr, err, verbose)
	os.Exit(1)
}

func PrintError(w io.Writer, err error, verbose bool) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", stringsUtils.SingleLine(err.Error()))
	if verbose {
		if pgErr, ok := pgerrors.AsPgError(err); ok {
			printServerError(w, pgErr)
		}
		_, _ = fmt.Fprintf(w, "%+v\n", err)
	}
	log.Debug().Err(err).Msg("command failed")
}

func printServerError(w io.Writer, pgErr *pgconn.PgError) {
	_, _ = fmt.Fprintln(w, "Server error:")
	for _, f := range []struct{ name, value string }{
		{"severity", pgErr.Severity},
		{"code", pgErr.Code},
		{"message", pgErr.Message},
		{"detail", pgErr.Detail},
		{"hint", pgErr.Hint},
		{"where", pgErr.Where},
		{"constraint", pgErr.ConstraintName},
	} {
		if f.value == "" {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s:\n%s\n", f.name, stringsUtils.WrapIndent(f.value, detailWidth, detailIndent))
	}
}
