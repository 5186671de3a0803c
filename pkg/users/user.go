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
)

const (
	// AnyHost matches every client host.
	AnyHost = "%"

	RootUserName = "root"
)

type UserQuota struct {
	MaxCPU         uint64 `json:"max_cpu"`
	MaxMemoryBytes uint64 `json:"max_memory_in_bytes"`
	MaxStorageSize uint64 `json:"max_storage_in_bytes"`
}

// UserInfo is the persisted user. Name and Hostname form its key.
type UserInfo struct {
	Name     string    `json:"name"`
	Hostname string    `json:"hostname"`
	Password []byte    `json:"password"`
	AuthType AuthType  `json:"auth_type"`
	Grants   GrantSet  `json:"grants"`
	Quota    UserQuota `json:"quota"`
}

// NewUserInfo encodes password with authType. An empty hostname means AnyHost.
func NewUserInfo(name, hostname string, password []byte, authType AuthType) *UserInfo {
	if hostname == "" {
		hostname = AnyHost
	}
	return &UserInfo{
		Name:     name,
		Hostname: hostname,
		Password: EncodePassword(authType, password),
		AuthType: authType,
	}
}

// RootUser is the built-in account sessions start with. It is never stored.
func RootUser() *UserInfo {
	u := NewUserInfo(RootUserName, AnyHost, nil, AuthNone)
	u.Grants.Grant(GlobalObject(), PrivilegeAll)
	return u
}

// Identity renders 'name'@'host'.
func (u *UserInfo) Identity() string {
	return Identity(u.Name, u.Hostname)
}

func Identity(name, hostname string) string {
	return fmt.Sprintf("'%s'@'%s'", name, hostname)
}

// ShowGrants renders one GRANT statement per grant entry.
func (u *UserInfo) ShowGrants() []string {
	entries := u.Grants.Sorted()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("GRANT %s ON %s TO %s", e.Privileges, e.Object, u.Identity()))
	}
	return lines
}

// CheckPassword compares a clear text password with the stored form.
func (u *UserInfo) CheckPassword(password []byte) bool {
	return string(EncodePassword(u.AuthType, password)) == string(u.Password)
}
