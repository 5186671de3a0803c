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
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// Privileges is a set of privilege bits.
type Privileges uint32

const (
	PrivilegeSelect Privileges = 1 << iota
	PrivilegeInsert
	PrivilegeCreate
	PrivilegeDrop
	PrivilegeAlter
	PrivilegeSuper
	PrivilegeUsage

	PrivilegeAll = PrivilegeSelect | PrivilegeInsert | PrivilegeCreate |
		PrivilegeDrop | PrivilegeAlter | PrivilegeSuper | PrivilegeUsage
)

var privilegeNames = []struct {
	p    Privileges
	name string
}{
	{PrivilegeSelect, "SELECT"},
	{PrivilegeInsert, "INSERT"},
	{PrivilegeCreate, "CREATE"},
	{PrivilegeDrop, "DROP"},
	{PrivilegeAlter, "ALTER"},
	{PrivilegeSuper, "SUPER"},
	{PrivilegeUsage, "USAGE"},
}

func ParsePrivilege(name string) (Privileges, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "ALL" || name == "ALL PRIVILEGES" {
		return PrivilegeAll, nil
	}
	for _, pn := range privilegeNames {
		if pn.name == name {
			return pn.p, nil
		}
	}
	return 0, moerr.NewBadArgumentsNoCtx("unknown privilege %s", name)
}

func (p Privileges) Has(o Privileges) bool {
	return p&o == o
}

func (p Privileges) IsEmpty() bool {
	return p == 0
}

// List returns the names of the set bits in declaration order.
func (p Privileges) List() []string {
	var names []string
	for _, pn := range privilegeNames {
		if p&pn.p != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Privileges) String() string {
	if p == PrivilegeAll {
		return "ALL"
	}
	return strings.Join(p.List(), ",")
}
