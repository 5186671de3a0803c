// Copyright 2023 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// EnvPrefix starts every environment override, e.g. FUSE_STORAGE_S3_BUCKET.
const EnvPrefix = "FUSE"

var lookupEnv = os.LookupEnv

// EnvName returns the variable overriding the toml path.
func EnvName(prefix string, path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, prefix)
	for _, p := range path {
		parts = append(parts, strings.ToUpper(strings.ReplaceAll(p, "-", "_")))
	}
	return strings.Join(parts, "_")
}

// ApplyEnv walks the toml tagged fields of cfg and overwrites every field
// whose variable is set.
func ApplyEnv(cfg *Config, prefix string, lookup func(string) (string, bool)) error {
	return applyEnv(reflect.ValueOf(cfg).Elem(), []string{}, prefix, lookup)
}

func applyEnv(v reflect.Value, path []string, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("toml"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		fieldPath := append(append([]string{}, path...), tag)
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			if err := applyEnv(fv, fieldPath, prefix, lookup); err != nil {
				return err
			}
			continue
		}
		name := EnvName(prefix, fieldPath...)
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if err := setValue(fv, raw); err != nil {
			return moerr.NewBadArgumentsNoCtx("env %s=%q: %v", name, raw, err)
		}
	}
	return nil
}

func setValue(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	default:
		return moerr.NewBadArgumentsNoCtx("unsupported kind %s", fv.Kind())
	}
	return nil
}
