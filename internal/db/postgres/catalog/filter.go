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

package catalog

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	kibibyte int64 = 1024
	mebibyte       = kibibyte * 1024
	gibibyte       = mebibyte * 1024
)

type tableEnv struct {
	Name      string `expr:"name"`
	Schema    string `expr:"schema"`
	Size      string `expr:"size"`
	SizeBytes int64  `expr:"size_bytes"`
	KB        int64  `expr:"KB"`
	MB        int64  `expr:"MB"`
	GB        int64  `expr:"GB"`
}

func newTableEnv(t *Table) tableEnv {
	return tableEnv{
		Name:      t.Name,
		Schema:    t.Schema,
		Size:      t.Size,
		SizeBytes: t.SizeBytes,
		KB:        kibibyte,
		MB:        mebibyte,
		GB:        gibibyte,
	}
}

// TableFilter - boolean expression evaluated against every listed table, for instance
// `size_bytes > 10 * MB && name startsWith "audit_"`.
type TableFilter struct {
	expression string
	program    *vm.Program
}

func NewTableFilter(expression string) (*TableFilter, error) {
	program, err := expr.Compile(expression, expr.Env(tableEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile table filter \"%s\": %w", expression, err)
	}
	return &TableFilter{
		expression: expression,
		program:    program,
	}, nil
}

func (f *TableFilter) Match(t *Table) (bool, error) {
	out, err := expr.Run(f.program, newTableEnv(t))
	if err != nil {
		return false, fmt.Errorf("evaluate table filter on %s: %w", NewTableRef(t.Schema, t.Name), err)
	}
	return out.(bool), nil
}

func (f *TableFilter) Apply(tables []*Table) ([]*Table, error) {
	res := make([]*Table, 0, len(tables))
	for _, t := range tables {
		ok, err := f.Match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, t)
		}
	}
	return res, nil
}
