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
	"encoding/json"
	"net/url"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

const maxUpdateAttempts = 8

// UserMgr keeps the users of one tenant in the metastore.
type UserMgr struct {
	store  metastore.Store
	prefix string
}

func NewUserMgr(store metastore.Store, tenant string) *UserMgr {
	return &UserMgr{
		store:  store,
		prefix: metastore.UserPrefix + url.PathEscape(tenant) + "/",
	}
}

func (m *UserMgr) key(name, hostname string) string {
	return m.prefix + url.PathEscape(name) + "@" + url.PathEscape(hostname)
}

func unknownUser(ctx context.Context, name, hostname string) error {
	return moerr.NewNotFound(ctx, "unknown user %s@%s", name, hostname)
}

func decodeUser(ctx context.Context, data []byte) (*UserInfo, error) {
	u := new(UserInfo)
	if err := json.Unmarshal(data, u); err != nil {
		return nil, moerr.NewInternalError(ctx, "decode user: %v", err)
	}
	return u, nil
}

// AddUser stores a new user and returns its sequence.
func (m *UserMgr) AddUser(ctx context.Context, user *UserInfo) (uint64, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return 0, moerr.ConvertGoError(ctx, err)
	}
	seq, err := m.store.PutIf(ctx, m.key(user.Name, user.Hostname), data, 0)
	if moerr.IsMoErrCode(err, moerr.ErrConflict) {
		return 0, moerr.NewAlreadyExists(ctx, "User %s already exists.", user.Identity())
	}
	if err != nil {
		return 0, err
	}
	logutil.Info("user created", zap.String("user", user.Identity()), zap.String("auth-type", user.AuthType.String()))
	return seq, nil
}

func (m *UserMgr) getUser(ctx context.Context, name, hostname string) (*UserInfo, uint64, error) {
	v, ok, err := m.store.Get(ctx, m.key(name, hostname))
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, unknownUser(ctx, name, hostname)
	}
	u, err := decodeUser(ctx, v.Value)
	if err != nil {
		return nil, 0, err
	}
	return u, v.Seq, nil
}

func (m *UserMgr) GetUser(ctx context.Context, name, hostname string) (*UserInfo, error) {
	u, _, err := m.getUser(ctx, name, hostname)
	return u, err
}

// GetUsers lists users ordered by key.
func (m *UserMgr) GetUsers(ctx context.Context) ([]*UserInfo, error) {
	kvs, err := m.store.Scan(ctx, m.prefix)
	if err != nil {
		return nil, err
	}
	users := make([]*UserInfo, 0, len(kvs))
	for _, kv := range kvs {
		u, err := decodeUser(ctx, kv.Value)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// update applies fn to the stored user and writes it back if the user did
// not change in between, retrying on a lost race.
func (m *UserMgr) update(ctx context.Context, name, hostname string, fn func(*UserInfo)) error {
	for i := 0; i < maxUpdateAttempts; i++ {
		u, seq, err := m.getUser(ctx, name, hostname)
		if err != nil {
			return err
		}
		fn(u)
		data, err := json.Marshal(u)
		if err != nil {
			return moerr.ConvertGoError(ctx, err)
		}
		_, err = m.store.PutIf(ctx, m.key(name, hostname), data, seq)
		if err == nil {
			return nil
		}
		if !moerr.IsMoErrCode(err, moerr.ErrConflict) {
			return err
		}
	}
	return moerr.NewConflict(ctx, "user %s is updated concurrently", Identity(name, hostname))
}

// UpdateUser changes the password and/or the auth type. A nil authType
// keeps the current one; a nil password with a new auth type re-encodes
// an empty password.
func (m *UserMgr) UpdateUser(ctx context.Context, name, hostname string, password []byte, authType *AuthType) error {
	return m.update(ctx, name, hostname, func(u *UserInfo) {
		if authType != nil {
			u.AuthType = *authType
		}
		if password != nil || authType != nil {
			u.Password = EncodePassword(u.AuthType, password)
		}
	})
}

// GrantPrivileges unions privs into the grants of the user on obj.
func (m *UserMgr) GrantPrivileges(ctx context.Context, name, hostname string, obj GrantObject, privs Privileges) error {
	return m.update(ctx, name, hostname, func(u *UserInfo) {
		u.Grants.Grant(obj, privs)
	})
}

func (m *UserMgr) RevokePrivileges(ctx context.Context, name, hostname string, obj GrantObject, privs Privileges) error {
	return m.update(ctx, name, hostname, func(u *UserInfo) {
		u.Grants.Revoke(obj, privs)
	})
}

func (m *UserMgr) DropUser(ctx context.Context, name, hostname string, ifExists bool) error {
	existed, err := m.store.Delete(ctx, m.key(name, hostname))
	if err != nil {
		return err
	}
	if !existed && !ifExists {
		return unknownUser(ctx, name, hostname)
	}
	return nil
}
