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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatYaml = "yaml"
	FormatJson = "json"
)

var errUnknownFormat = errors.New("unknown output format")

func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJson, FormatYaml:
		return nil
	}
	return fmt.Errorf("%w %s", errUnknownFormat, format)
}

func printStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJson:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("json render error: %w", err)
		}
	case FormatYaml:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml render error: %w", err)
		}
	default:
		return fmt.Errorf("%w %s", errUnknownFormat, format)
	}
	return nil
}

// confirm asks a yes/no question. An empty answer or the end of input selects def.
func confirm(in *bufio.Reader, out io.Writer, question string, def bool) (bool, error) {
	hint := "yes"
	if !def {
		hint = "no"
	}
	_, _ = fmt.Fprintf(out, "%s (yes/no) [%s]: ", question, hint)
	answer, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("cannot read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
