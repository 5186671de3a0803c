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

package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

type registryEntry[T any] struct {
	name  string
	value T
}

// Registry maps case-insensitive names to engines or functions. It is
// filled at startup and read by every query afterwards.
type Registry[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]registryEntry[T]
}

func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]registryEntry[T]),
	}
}

// Register fails with ErrAlreadyExists when name is taken in any case.
func (r *Registry[T]) Register(name string, value T) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return moerr.NewAlreadyExistsNoCtx("%s %s already exists", r.kind, name)
	}
	r.entries[key] = registryEntry[T]{name: name, value: value}
	return nil
}

func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(name)]
	return e.value, ok
}

// Names returns the registered names as given, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

type (
	DatabaseEngineRegistry = Registry[DatabaseEngine]
	TableEngineRegistry    = Registry[TableEngine]
	TableFunctionRegistry  = Registry[TableFunction]
)

func NewDatabaseEngineRegistry() *DatabaseEngineRegistry {
	return NewRegistry[DatabaseEngine]("database engine")
}

func NewTableEngineRegistry() *TableEngineRegistry {
	return NewRegistry[TableEngine]("table engine")
}

func NewTableFunctionRegistry() *TableFunctionRegistry {
	return NewRegistry[TableFunction]("table function")
}
