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

package users

import (
	"fmt"
	"sort"
)

type GrantObjectKind uint8

const (
	GrantGlobal GrantObjectKind = iota
	GrantDatabase
	GrantTable
)

// GrantObject names what a grant applies to: everything, one database or
// one table.
type GrantObject struct {
	Kind     GrantObjectKind `json:"kind"`
	Database string          `json:"database,omitempty"`
	Table    string          `json:"table,omitempty"`
}

func GlobalObject() GrantObject {
	return GrantObject{Kind: GrantGlobal}
}

func DatabaseObject(db string) GrantObject {
	return GrantObject{Kind: GrantDatabase, Database: db}
}

func TableObject(db, table string) GrantObject {
	return GrantObject{Kind: GrantTable, Database: db, Table: table}
}

func (o GrantObject) String() string {
	switch o.Kind {
	case GrantDatabase:
		return fmt.Sprintf("'%s'.*", o.Database)
	case GrantTable:
		return fmt.Sprintf("'%s'.'%s'", o.Database, o.Table)
	default:
		return "*.*"
	}
}

// covers reports whether a grant on o also applies to target.
func (o GrantObject) covers(target GrantObject) bool {
	switch o.Kind {
	case GrantGlobal:
		return true
	case GrantDatabase:
		return target.Kind != GrantGlobal && target.Database == o.Database
	default:
		return target == o
	}
}

type GrantEntry struct {
	Object     GrantObject `json:"object"`
	Privileges Privileges  `json:"privileges"`
}

// GrantSet keeps at most one entry per object.
type GrantSet struct {
	Entries []GrantEntry `json:"entries"`
}

func (g *GrantSet) find(obj GrantObject) int {
	for i, e := range g.Entries {
		if e.Object == obj {
			return i
		}
	}
	return -1
}

// Grant unions privs into the entry of obj.
func (g *GrantSet) Grant(obj GrantObject, privs Privileges) {
	if i := g.find(obj); i >= 0 {
		g.Entries[i].Privileges |= privs
		return
	}
	g.Entries = append(g.Entries, GrantEntry{Object: obj, Privileges: privs})
}

// Revoke removes privs from obj. Entries left empty are dropped.
func (g *GrantSet) Revoke(obj GrantObject, privs Privileges) {
	i := g.find(obj)
	if i < 0 {
		return
	}
	g.Entries[i].Privileges &^= privs
	if g.Entries[i].Privileges.IsEmpty() {
		g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
	}
}

// Privileges returns the privileges granted directly on obj.
func (g *GrantSet) Privileges(obj GrantObject) Privileges {
	if i := g.find(obj); i >= 0 {
		return g.Entries[i].Privileges
	}
	return 0
}

// Verify checks privs against every entry covering target.
func (g *GrantSet) Verify(target GrantObject, privs Privileges) bool {
	var have Privileges
	for _, e := range g.Entries {
		if e.Object.covers(target) {
			have |= e.Privileges
		}
	}
	return have.Has(privs)
}

// Sorted returns the entries ordered global, database, table.
func (g *GrantSet) Sorted() []GrantEntry {
	entries := append([]GrantEntry{}, g.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Object, entries[j].Object
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Database != b.Database {
			return a.Database < b.Database
		}
		return a.Table < b.Table
	})
	return entries
}
