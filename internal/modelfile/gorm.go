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
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

// gorm - Go structs mapped through the TableName method
type gorm struct{}

func (g *gorm) structName(table, model string) string {
	if model == "" {
		return ClassName(table)
	}
	// models.Order -> Order
	if idx := strings.LastIndex(model, "."); idx >= 0 {
		return model[idx+1:]
	}
	return model
}

func (g *gorm) resolvePath(cfg *Config, table, model string) string {
	return filepath.Join(cfg.Dir, strcase.ToSnake(g.structName(table, model))+".go")
}

func (g *gorm) tableNameRe(name string) *regexp.Regexp {
	return regexp.MustCompile(
		`(func\s*\(\s*(?:\w+\s+)?\*?` + regexp.QuoteMeta(name) +
			`\s*\)\s*TableName\(\)\s*string\s*\{\s*return\s+)"[^"]*"(\s*\})`,
	)
}

func (g *gorm) set(content []byte, table, model, value string) ([]byte, Action, error) {
	name := g.structName(table, model)
	if loc := g.tableNameRe(name).FindSubmatchIndex(content); loc != nil {
		replacement := fmt.Sprintf("%s%q%s", content[loc[2]:loc[3]], value, content[loc[4]:loc[5]])
		return splice(content, loc[0], loc[1], replacement), ActionUpdated, nil
	}

	structRe := regexp.MustCompile(`(?m)^type\s+` + regexp.QuoteMeta(name) + `\s+struct\b`)
	if !structRe.Match(content) {
		return nil, "", fmt.Errorf("struct %s: %w", name, errNoInsertionPlace)
	}

	var sb strings.Builder
	sb.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		sb.WriteByte('\n')
	}
	sb.WriteString(fmt.Sprintf("\nfunc (%s) TableName() string {\n\treturn %q\n}\n", name, value))
	return []byte(sb.String()), ActionAdded, nil
}

func (g *gorm) remove(content []byte, table, model string) ([]byte, Action, error) {
	name := g.structName(table, model)
	re := regexp.MustCompile(
		`\n*(?://[^\n]*\n)*func\s*\(\s*(?:\w+\s+)?\*?` + regexp.QuoteMeta(name) +
			`\s*\)\s*TableName\(\)\s*string\s*\{\s*return\s+"[^"]*"\s*\}\n?`,
	)
	loc := re.FindIndex(content)
	if loc == nil {
		return content, ActionUnchanged, nil
	}
	return splice(content, loc[0], loc[1], "\n"), ActionRemoved, nil
}
