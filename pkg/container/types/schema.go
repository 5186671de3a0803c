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

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a named, typed column slot
type Field struct {
	Name     string `json:"name"`
	Typ      T      `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

func NewField(name string, typ T, nullable bool) Field {
	return Field{
		Name:     name,
		Typ:      typ,
		Nullable: nullable,
	}
}

func (f Field) String() string {
	if f.Nullable {
		return fmt.Sprintf("%s %s NULL", f.Name, f.Typ)
	}
	return fmt.Sprintf("%s %s", f.Name, f.Typ)
}

// Schema is an immutable ordered list of fields.
// Two schemas are equal iff their field sequences are equal.
type Schema struct {
	fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{
		fields: append([]Field(nil), fields...),
	}
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the field list
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// IndexOf returns the position of the first field named name, or -1.
// Names compare case-insensitively.
func (s *Schema) IndexOf(name string) int {
	for i, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Project keeps the fields at idxs, in that order
func (s *Schema) Project(idxs []int) *Schema {
	fields := make([]Field, len(idxs))
	for i, idx := range idxs {
		fields[i] = s.fields[idx]
	}
	return &Schema{fields: fields}
}

func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type schemaJSON struct {
	Fields []Field `json:"fields"`
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	fields := s.fields
	if fields == nil {
		fields = []Field{}
	}
	return json.Marshal(schemaJSON{Fields: fields})
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	var v schemaJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.fields = v.Fields
	return nil
}
