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


package strings

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

var lineBreakReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// SingleLine replaces line breaks with spaces
func SingleLine(v string) string {
	return strings.TrimSpace(lineBreakReplacer.Replace(v))
}

// WrapIndent wraps v on word boundaries and prefixes every line with indent. Words longer than
// width stay on their own line unbroken.
func WrapIndent(v string, width uint, indent string) string {
	lines := strings.Split(wordwrap.WrapString(v, width), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
