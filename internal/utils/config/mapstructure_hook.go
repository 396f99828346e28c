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

package config

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/greenmaskio/schemashift/internal/domains"
)

// SearchPathHookFunc decodes "tenant, public" and [tenant, public] into domains.SearchPath
func SearchPathHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(domains.SearchPath{}) {
			return data, nil
		}

		var items []string
		if raw, ok := data.(string); ok {
			items = strings.Split(raw, ",")
		} else {
			var err error
			items, err = cast.ToStringSliceE(data)
			if err != nil {
				return nil, err
			}
		}

		res := make(domains.SearchPath, 0, len(items))
		for _, item := range items {
			item = strings.Trim(strings.TrimSpace(item), `"`)
			if item != "" {
				res = append(res, item)
			}
		}
		return res, nil
	}
}

func StringToSliceWithBracketHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Kind,
		t reflect.Kind,
		data interface{}) (interface{}, error) {
		if f != reflect.String || t != reflect.Slice {
			return data, nil
		}

		raw := data.(string)
		if raw == "" {
			return []string{}, nil
		}
		var slice []string
		err := json.Unmarshal([]byte(raw), &slice)
		if err != nil {
			return data, nil
		}
		return slice, nil
	}
}

// DecoderConfig - decoder settings used for viper.Unmarshal
func DecoderConfig(cfg *mapstructure.DecoderConfig) {
	cfg.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		SearchPathHookFunc(),
		StringToSliceWithBracketHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
