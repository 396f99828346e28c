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

package cmd_runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func Run(ctx context.Context, logger *zerolog.Logger, name string, args ...string) error {
	return RunWithEnv(ctx, logger, nil, name, args...)
}

// RunWithEnv runs the executable with the current process environment extended by env
// ("KEY=value" pairs). Both output streams are forwarded line by line into the logger.
func RunWithEnv(ctx context.Context, logger *zerolog.Logger, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	errReader, errWriter := io.Pipe()
	defer errReader.Close()
	outReader, outWriter := io.Pipe()
	defer outReader.Close()

	cmd.Stderr = errWriter
	cmd.Stdout = outWriter
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("external command runtime error: %w", err)
	}

	eg, gtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return forwardLines(gtx, errReader, func(line string) {
			logger.Info().Str("Executable", name).Str("Stderr", line).Msg("stderr forwarding")
		})
	})

	eg.Go(func() error {
		return forwardLines(gtx, outReader, func(line string) {
			logger.Debug().Str("Executable", name).Str("Stdout", line).Msg("stdout forwarding")
		})
	})

	eg.Go(func() error {
		defer outWriter.Close()
		defer errWriter.Close()
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("external command runtime error: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("cannot execute command: %w", err)
	}

	return nil
}

func forwardLines(ctx context.Context, r io.Reader, emit func(line string)) error {
	lineScanner := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, _, err := lineScanner.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		emit(string(line))
	}
}
