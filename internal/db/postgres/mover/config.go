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

package mover

import (
	"fmt"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

type Config struct {
	// LockTimeout - when not zero it is set for the move transaction with SET LOCAL lock_timeout
	LockTimeout time.Duration
	// LogQueries - log every issued statement with info level instead of debug
	LogQueries bool
}

func NewConfig(lockTimeout string, logQueries bool) (*Config, error) {
	lt, err := ParseLockTimeout(lockTimeout)
	if err != nil {
		return nil, err
	}
	return &Config{
		LockTimeout: lt,
		LogQueries:  logQueries,
	}, nil
}

// ParseLockTimeout accepts durations like "5s", "1m30s" or "2d". Empty string means no timeout.
func ParseLockTimeout(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("cannot parse lock timeout \"%s\": %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("lock timeout must not be negative: %s", v)
	}
	if d > 0 && d < time.Millisecond {
		return 0, fmt.Errorf("lock timeout must be at least 1ms: %s", v)
	}
	return d, nil
}
