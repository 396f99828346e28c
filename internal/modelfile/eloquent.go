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
)

const eloquentNamespacePrefix = "App/"

var (
	eloquentTablePropertyRe = regexp.MustCompile(`(protected\s+\$table\s*=\s*)['"][^'"]*['"](\s*;)`)
	eloquentTableLineRe     = regexp.MustCompile(`\n\s*protected\s+\$table\s*=\s*['"][^'"]*['"]\s*;\s*\n`)
	eloquentTraitUseRe      = regexp.MustCompile(`(?m)^[ \t]+use\s+[\w\\]+\s*;[ \t]*\n`)
	eloquentClassOpenRe     = regexp.MustCompile(`(?m)^\s*class\s+\w+[^{]*\{[ \t]*\n`)
)

// eloquent - Laravel models with the protected $table property
type eloquent struct{}

// resolvePath maps App\Models\Order to <app dir>/Models/Order.php where the app dir is the parent
// of the models directory. Without an explicit model the class name is derived from the table.
func (e *eloquent) resolvePath(cfg *Config, table, model string) string {
	if model == "" {
		return filepath.Join(cfg.Dir, ClassName(table)+".php")
	}
	rel := strings.ReplaceAll(model, `\`, "/") + ".php"
	rel = strings.TrimPrefix(rel, eloquentNamespacePrefix)
	return filepath.Join(filepath.Dir(cfg.Dir), filepath.FromSlash(rel))
}

func (e *eloquent) set(content []byte, _, _, value string) ([]byte, Action, error) {
	if loc := eloquentTablePropertyRe.FindSubmatchIndex(content); loc != nil {
		replacement := fmt.Sprintf("%s'%s'%s", content[loc[2]:loc[3]], value, content[loc[4]:loc[5]])
		return splice(content, loc[0], loc[1], replacement), ActionUpdated, nil
	}

	if all := eloquentTraitUseRe.FindAllIndex(content, -1); len(all) > 0 {
		pos := all[len(all)-1][1]
		return splice(content, pos, pos, fmt.Sprintf("\n    protected $table = '%s';\n", value)), ActionAdded, nil
	}

	if loc := eloquentClassOpenRe.FindIndex(content); loc != nil {
		return splice(content, loc[1], loc[1], fmt.Sprintf("    protected $table = '%s';\n\n", value)), ActionAdded, nil
	}
	return nil, "", errNoInsertionPlace
}

func (e *eloquent) remove(content []byte, _, _ string) ([]byte, Action, error) {
	loc := eloquentTableLineRe.FindIndex(content)
	if loc == nil {
		return content, ActionUnchanged, nil
	}
	return splice(content, loc[0], loc[1], "\n"), ActionRemoved, nil
}

func splice(content []byte, from, to int, insert string) []byte {
	res := make([]byte, 0, len(content)+len(insert))
	res = append(res, content[:from]...)
	res = append(res, insert...)
	res = append(res, content[to:]...)
	return res
}
