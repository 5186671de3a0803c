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

package interpreters

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/users"
)

type CreateUserInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.CreateUserPlan
}

func NewCreateUserInterpreter(qctx *sessions.QueryContext, p *plan.CreateUserPlan) *CreateUserInterpreter {
	return &CreateUserInterpreter{qctx: qctx, plan: p}
}

func (i *CreateUserInterpreter) Name() string          { return "CreateUserInterpreter" }
func (i *CreateUserInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *CreateUserInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	user := users.NewUserInfo(i.plan.User, i.plan.Hostname, i.plan.Password, i.plan.AuthType)
	mgr := i.qctx.GetUserManager()
	if i.plan.IfNotExists {
		if _, err := mgr.GetUser(ctx, user.Name, user.Hostname); err == nil {
			return finished(), nil
		}
	}
	if _, err := mgr.AddUser(ctx, user); err != nil {
		return nil, err
	}
	return finished(), nil
}

type AlterUserInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.AlterUserPlan
}

func NewAlterUserInterpreter(qctx *sessions.QueryContext, p *plan.AlterUserPlan) *AlterUserInterpreter {
	return &AlterUserInterpreter{qctx: qctx, plan: p}
}

func (i *AlterUserInterpreter) Name() string          { return "AlterUserInterpreter" }
func (i *AlterUserInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *AlterUserInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	err := i.qctx.GetUserManager().UpdateUser(ctx, i.plan.User, i.plan.Hostname, i.plan.Password, i.plan.AuthType)
	if err != nil {
		return nil, err
	}
	return finished(), nil
}

type DropUserInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.DropUserPlan
}

func NewDropUserInterpreter(qctx *sessions.QueryContext, p *plan.DropUserPlan) *DropUserInterpreter {
	return &DropUserInterpreter{qctx: qctx, plan: p}
}

func (i *DropUserInterpreter) Name() string          { return "DropUserInterpreter" }
func (i *DropUserInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *DropUserInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.GetUserManager().DropUser(ctx, i.plan.User, i.plan.Hostname, i.plan.IfExists); err != nil {
		return nil, err
	}
	return finished(), nil
}

type GrantPrivilegeInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.GrantPrivilegePlan
}

func NewGrantPrivilegeInterpreter(qctx *sessions.QueryContext, p *plan.GrantPrivilegePlan) *GrantPrivilegeInterpreter {
	return &GrantPrivilegeInterpreter{qctx: qctx, plan: p}
}

func (i *GrantPrivilegeInterpreter) Name() string          { return "GrantPrivilegeInterpreter" }
func (i *GrantPrivilegeInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *GrantPrivilegeInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	p := i.plan
	if err := i.qctx.GetUserManager().GrantPrivileges(ctx, p.User, p.Hostname, p.Object, p.Privileges); err != nil {
		return nil, err
	}
	return finished(), nil
}

type RevokePrivilegeInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.RevokePrivilegePlan
}

func NewRevokePrivilegeInterpreter(qctx *sessions.QueryContext, p *plan.RevokePrivilegePlan) *RevokePrivilegeInterpreter {
	return &RevokePrivilegeInterpreter{qctx: qctx, plan: p}
}

func (i *RevokePrivilegeInterpreter) Name() string          { return "RevokePrivilegeInterpreter" }
func (i *RevokePrivilegeInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *RevokePrivilegeInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	p := i.plan
	if err := i.qctx.GetUserManager().RevokePrivileges(ctx, p.User, p.Hostname, p.Object, p.Privileges); err != nil {
		return nil, err
	}
	return finished(), nil
}

type ShowGrantsInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.ShowGrantsPlan
}

func NewShowGrantsInterpreter(qctx *sessions.QueryContext, p *plan.ShowGrantsPlan) *ShowGrantsInterpreter {
	return &ShowGrantsInterpreter{qctx: qctx, plan: p}
}

func (i *ShowGrantsInterpreter) Name() string          { return "ShowGrantsInterpreter" }
func (i *ShowGrantsInterpreter) Schema() *types.Schema { return i.plan.Schema() }

// Execute shows the stored grants of the named user, or of the session
// user when no name is given.
func (i *ShowGrantsInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	user := i.qctx.GetCurrentUser()
	if i.plan.User != "" {
		var err error
		if user, err = i.qctx.GetUserManager().GetUser(ctx, i.plan.User, i.plan.Hostname); err != nil {
			return nil, err
		}
	}
	grants := user.ShowGrants()
	rows := make([][]types.DataValue, len(grants))
	for j, g := range grants {
		rows[j] = []types.DataValue{types.NewString(g)}
	}
	bat, err := batch.FromValues(i.Schema(), rows)
	if err != nil {
		return nil, err
	}
	return streams.NewOneBlockStream(bat), nil
}
