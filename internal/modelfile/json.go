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
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// jsonManifest - table mappings kept in a JSON document: {"tables": {"orders": "billing.orders"}}
type jsonManifest struct {
	// root - path of the mapping object, empty for the document root
	root string
}

func (j *jsonManifest) resolvePath(cfg *Config, _, _ string) string {
	return cfg.Manifest
}

func (j *jsonManifest) key(table, model string) string {
	name := table
	if model != "" {
		name = model
	}
	escaped := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`).Replace(name)
	if j.root == "" {
		return escaped
	}
	return j.root + "." + escaped
}

func (j *jsonManifest) set(content []byte, table, model, value string) ([]byte, Action, error) {
	key := j.key(table, model)
	current := gjson.GetBytes(content, key)
	if current.Exists() && current.String() == value {
		return content, ActionUnchanged, nil
	}
	action := ActionAdded
	if current.Exists() {
		action = ActionUpdated
	}
	res, err := sjson.SetBytes(content, key, value)
	if err != nil {
		return nil, "", err
	}
	return res, action, nil
}

func (j *jsonManifest) remove(content []byte, table, model string) ([]byte, Action, error) {
	key := j.key(table, model)
	if !gjson.GetBytes(content, key).Exists() {
		return content, ActionUnchanged, nil
	}
	res, err := sjson.DeleteBytes(content, key)
	if err != nil {
		return nil, "", err
	}
	return res, ActionRemoved, nil
}
