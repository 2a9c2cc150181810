/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"encoding/json"
	"reflect"
)

const redacted = "****"

// Sanitized renders cfg as a JSON-shaped map with every `sensitive:"true"` field masked.
func Sanitized(cfg interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	maskSensitive(reflect.ValueOf(cfg), out)

	return out, nil
}

func maskSensitive(v reflect.Value, out map[string]interface{}) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct || out == nil {
		return
	}

	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i)

		name := jsonName(&ft)
		if name == "" {
			continue
		}

		val, ok := out[name]
		if !ok {
			continue
		}

		if ft.Tag.Get("sensitive") == "true" {
			if s, isString := val.(string); !isString || s != "" {
				out[name] = redacted
			}

			continue
		}

		if nested, isMap := val.(map[string]interface{}); isMap {
			maskSensitive(v.Field(i), nested)
		}
	}
}
