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
	"context"
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

func TestAuthType(t *testing.T) {
	for _, a := range []AuthType{AuthNone, AuthPlainText, AuthSha256, AuthDoubleSha1} {
		got, err := ParseAuthType(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	_, err := ParseAuthType("kerberos")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	require.Equal(t, AuthSha256, DefaultAuthType)

	data, err := json.Marshal(AuthDoubleSha1)
	require.NoError(t, err)
	require.Equal(t, `"double_sha1_password"`, string(data))
}

func TestEncodePassword(t *testing.T) {
	sum := sha256.Sum256([]byte("p"))
	require.Equal(t, sum[:], EncodePassword(AuthSha256, []byte("p")))
	require.Equal(t, []byte("p"), EncodePassword(AuthPlainText, []byte("p")))
	require.Empty(t, EncodePassword(AuthNone, []byte("p")))
	require.Len(t, EncodePassword(AuthDoubleSha1, []byte("p")), 20)

	u := NewUserInfo("u", "", []byte("p"), AuthDoubleSha1)
	require.Equal(t, AnyHost, u.Hostname)
	require.True(t, u.CheckPassword([]byte("p")))
	require.False(t, u.CheckPassword([]byte("q")))
}

func TestPrivileges(t *testing.T) {
	p, err := ParsePrivilege("select")
	require.NoError(t, err)
	require.Equal(t, PrivilegeSelect, p)
	p, err = ParsePrivilege("ALL PRIVILEGES")
	require.NoError(t, err)
	require.Equal(t, PrivilegeAll, p)
	_, err = ParsePrivilege("fly")
	require.Error(t, err)

	require.Equal(t, "SELECT,CREATE", (PrivilegeCreate | PrivilegeSelect).String())
	require.Equal(t, "ALL", PrivilegeAll.String())
	require.True(t, PrivilegeAll.Has(PrivilegeDrop))
}

func TestGrantSet(t *testing.T) {
	var g GrantSet
	db1 := DatabaseObject("db1")
	g.Grant(db1, PrivilegeSelect|PrivilegeCreate)
	g.Grant(db1, PrivilegeSelect)
	require.Len(t, g.Entries, 1)
	require.Equal(t, PrivilegeSelect|PrivilegeCreate, g.Privileges(db1))

	require.True(t, g.Verify(TableObject("db1", "t"), PrivilegeSelect))
	require.False(t, g.Verify(TableObject("db2", "t"), PrivilegeSelect))
	require.False(t, g.Verify(GlobalObject(), PrivilegeSelect))

	g.Grant(GlobalObject(), PrivilegeUsage)
	g.Grant(TableObject("db2", "t"), PrivilegeInsert)
	sorted := g.Sorted()
	require.Equal(t, GrantGlobal, sorted[0].Object.Kind)
	require.Equal(t, GrantTable, sorted[2].Object.Kind)

	g.Revoke(db1, PrivilegeSelect|PrivilegeCreate)
	require.Len(t, g.Entries, 2)
	g.Revoke(db1, PrivilegeSelect)
}

func TestShowGrants(t *testing.T) {
	u := NewUserInfo("u", AnyHost, nil, AuthNone)
	u.Grants.Grant(DatabaseObject("db1"), PrivilegeSelect|PrivilegeCreate)
	u.Grants.Grant(TableObject("db1", "t"), PrivilegeInsert)
	require.Equal(t, []string{
		"GRANT SELECT,CREATE ON 'db1'.* TO 'u'@'%'",
		"GRANT INSERT ON 'db1'.'t' TO 'u'@'%'",
	}, u.ShowGrants())
	require.Equal(t, []string{"GRANT ALL ON *.* TO 'root'@'%'"}, RootUser().ShowGrants())
}

func TestUserMgr(t *testing.T) {
	ctx := context.Background()
	store := metastore.NewMemoryStore()
	mgr := NewUserMgr(store, "admin")

	u := NewUserInfo("u", AnyHost, []byte("p"), DefaultAuthType)
	_, err := mgr.AddUser(ctx, u)
	require.NoError(t, err)
	_, err = mgr.AddUser(ctx, u)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrAlreadyExists))

	got, err := mgr.GetUser(ctx, "u", AnyHost)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("p"))
	require.Equal(t, sum[:], got.Password)
	require.Equal(t, AuthSha256, got.AuthType)
	require.Empty(t, got.Grants.Entries)

	_, err = mgr.GetUser(ctx, "u", "localhost")
	require.True(t, moerr.IsNotFound(err))
	require.Contains(t, err.Error(), "unknown user u@localhost")

	// users of another tenant stay apart
	other := NewUserMgr(store, "other")
	users, err := other.GetUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	_, err = mgr.AddUser(ctx, NewUserInfo("v", "localhost", nil, AuthNone))
	require.NoError(t, err)
	users, err = mgr.GetUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	plain := AuthPlainText
	require.NoError(t, mgr.UpdateUser(ctx, "u", AnyHost, []byte("new"), &plain))
	got, err = mgr.GetUser(ctx, "u", AnyHost)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), got.Password)
	require.Equal(t, AuthPlainText, got.AuthType)
	require.True(t, moerr.IsNotFound(mgr.UpdateUser(ctx, "x", AnyHost, nil, nil)))

	obj := DatabaseObject("db1")
	require.NoError(t, mgr.GrantPrivileges(ctx, "u", AnyHost, obj, PrivilegeSelect|PrivilegeCreate))
	require.NoError(t, mgr.GrantPrivileges(ctx, "u", AnyHost, obj, PrivilegeSelect|PrivilegeCreate))
	got, err = mgr.GetUser(ctx, "u", AnyHost)
	require.NoError(t, err)
	require.Equal(t, []string{"GRANT SELECT,CREATE ON 'db1'.* TO 'u'@'%'"}, got.ShowGrants())

	require.NoError(t, mgr.RevokePrivileges(ctx, "u", AnyHost, obj, PrivilegeCreate))
	got, err = mgr.GetUser(ctx, "u", AnyHost)
	require.NoError(t, err)
	require.Equal(t, PrivilegeSelect, got.Grants.Privileges(obj))

	require.NoError(t, mgr.DropUser(ctx, "u", AnyHost, false))
	require.True(t, moerr.IsNotFound(mgr.DropUser(ctx, "u", AnyHost, false)))
	require.NoError(t, mgr.DropUser(ctx, "u", AnyHost, true))
}
