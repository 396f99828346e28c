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

package modelfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

var (
	ErrModelNotFound    = errors.New("model file not found")
	ErrUnknownDialect   = errors.New("unknown model dialect")
	errNoInsertionPlace = errors.New("could not determine where to insert the table mapping")
)

const (
	DialectEloquent = "eloquent"
	DialectGorm     = "gorm"
	DialectJson     = "json"
)

type Action string

const (
	ActionAdded     Action = "added"
	ActionUpdated   Action = "updated"
	ActionRemoved   Action = "removed"
	ActionUnchanged Action = "unchanged"
)

type Config struct {
	// Dir - directory with the model files
	Dir     string
	Dialect string
	// Manifest - JSON file with table mappings, json dialect only
	Manifest string
	// JsonPath - gjson path of the mapping object inside Manifest
	JsonPath string
	// DefaultSchema - the schema where tables need no explicit mapping
	DefaultSchema string
}

// Change - result of a model update
type Change struct {
	File   string `json:"file" yaml:"file"`
	Action Action `json:"action" yaml:"action"`
	// Value - the new mapping, empty when the mapping was removed
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
	DryRun bool   `json:"dry_run" yaml:"dry_run"`
}

func (c *Change) String() string {
	if c.DryRun {
		if c.Value == "" {
			return fmt.Sprintf("Would remove table mapping from model: %s", c.File)
		}
		return fmt.Sprintf("Would set table = '%s' in model: %s", c.Value, c.File)
	}
	switch c.Action {
	case ActionAdded:
		return fmt.Sprintf("Added table = '%s' to model: %s", c.Value, c.File)
	case ActionUpdated:
		return fmt.Sprintf("Updated table = '%s' in model: %s", c.Value, c.File)
	case ActionRemoved:
		return fmt.Sprintf("Removed table mapping from model: %s", c.File)
	}
	return fmt.Sprintf("No table mapping changes needed in model: %s", c.File)
}

type dialect interface {
	// resolvePath - file that holds the mapping of the table. model is the explicit model name and
	// might be empty.
	resolvePath(cfg *Config, table, model string) string
	set(content []byte, table, model, value string) ([]byte, Action, error)
	remove(content []byte, table, model string) ([]byte, Action, error)
}

type Updater struct {
	cfg     *Config
	dialect dialect
}

func NewUpdater(cfg *Config) (*Updater, error) {
	var d dialect
	switch cfg.Dialect {
	case DialectEloquent, "":
		d = &eloquent{}
	case DialectGorm:
		d = &gorm{}
	case DialectJson:
		d = &jsonManifest{root: cfg.JsonPath}
	default:
		return nil, fmt.Errorf("dialect \"%s\": %w", cfg.Dialect, ErrUnknownDialect)
	}
	return &Updater{
		cfg:     cfg,
		dialect: d,
	}, nil
}

// Update points the model of the table to its new schema. Moving the table into the default schema
// removes the explicit mapping. Nothing is written in dry-run mode.
func (u *Updater) Update(table, schemaTo, model string, dryRun bool) (*Change, error) {
	filePath := u.dialect.resolvePath(u.cfg, table, model)
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		hint := ""
		if model == "" {
			hint = " (use --model to specify)"
		}
		return nil, fmt.Errorf("%w: %s%s", ErrModelNotFound, filePath, hint)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read model file: %w", err)
	}

	change := &Change{
		File:   filePath,
		DryRun: dryRun,
	}
	var res []byte
	if schemaTo == u.cfg.DefaultSchema {
		res, change.Action, err = u.dialect.remove(content, table, model)
	} else {
		change.Value = fmt.Sprintf("%s.%s", schemaTo, table)
		res, change.Action, err = u.dialect.set(content, table, model, change.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot update model file %s: %w", filePath, err)
	}

	if dryRun || change.Action == ActionUnchanged {
		return change, nil
	}
	if err = os.WriteFile(filePath, res, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("cannot write model file: %w", err)
	}
	return change, nil
}

// ClassName - model class derived from the table name (orders -> Order, order_items -> OrderItem)
func ClassName(table string) string {
	return strcase.ToCamel(inflection.Singular(table))
}
