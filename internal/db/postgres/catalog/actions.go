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
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedReferentialAction = errors.New("unsupported referential action")

// ReferentialAction - ON UPDATE / ON DELETE behaviour of a foreign key. Only the values below
// are ever rendered into DDL.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NO ACTION"
	Restrict   ReferentialAction = "RESTRICT"
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// pg_constraint.confupdtype / confdeltype codes
var actionCodes = map[string]ReferentialAction{
	"a": NoAction,
	"r": Restrict,
	"c": Cascade,
	"n": SetNull,
	"d": SetDefault,
}

func (a ReferentialAction) Validate() error {
	switch a {
	case NoAction, Restrict, Cascade, SetNull, SetDefault:
		return nil
	}
	return fmt.Errorf("action \"%s\": %w", string(a), ErrUnsupportedReferentialAction)
}

func (a ReferentialAction) String() string {
	return string(a)
}

// ParseReferentialAction accepts both the catalog code and the information_schema spelling.
func ParseReferentialAction(v string) (ReferentialAction, error) {
	if a, ok := actionCodes[v]; ok {
		return a, nil
	}
	a := ReferentialAction(strings.ToUpper(strings.Join(strings.Fields(v), " ")))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}
