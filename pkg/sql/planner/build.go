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

package planner

import (
	"context"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/users"
)

// CompilerContext is what binding reads from the query. *sessions.QueryContext
// implements it.
type CompilerContext interface {
	GetCurrentDatabase() string
	GetCurrentUser() *users.UserInfo
	GetCatalog() catalog.Catalog
	// GetTable resolves a table once per query.
	GetTable(ctx context.Context, database, table string) (catalog.Table, error)
}

// BuildPlan binds stmt into a plan. SELECT trees come out unoptimized.
func BuildPlan(ctx context.Context, cc CompilerContext, stmt parsers.Statement) (plan.Plan, error) {
	b := &builder{ctx: ctx, cc: cc}
	return b.buildStatement(stmt)
}

// BuildSQL parses sql, which must hold exactly one statement, and binds it.
func BuildSQL(ctx context.Context, cc CompilerContext, sql string) (plan.Plan, error) {
	stmt, err := parsers.ParseOne(ctx, sql)
	if err != nil {
		return nil, err
	}
	return BuildPlan(ctx, cc, stmt)
}

type builder struct {
	ctx context.Context
	cc  CompilerContext
}

func (b *builder) buildStatement(stmt parsers.Statement) (plan.Plan, error) {
	switch s := stmt.(type) {
	case *parsers.Select:
		return b.buildSelect(s)
	case *parsers.Explain:
		sel, err := b.buildSelect(s.Select)
		if err != nil {
			return nil, err
		}
		kind := plan.ExplainSyntax
		if s.Kind == parsers.ExplainPipeline {
			kind = plan.ExplainPipeline
		}
		return &plan.ExplainPlan{Kind: kind, Input: sel}, nil
	case *parsers.Insert:
		return b.buildInsert(s)
	case *parsers.Copy:
		return b.buildCopy(s)
	case *parsers.CreateDatabase:
		return &plan.CreateDatabasePlan{
			IfNotExists: s.IfNotExists,
			Database:    s.Name,
			Engine:      s.Engine,
			Options:     s.Options,
		}, nil
	case *parsers.DropDatabase:
		return &plan.DropDatabasePlan{IfExists: s.IfExists, Database: s.Name}, nil
	case *parsers.CreateTable:
		return b.buildCreateTable(s)
	case *parsers.DropTable:
		return &plan.DropTablePlan{
			IfExists: s.IfExists,
			Database: b.databaseOf(s.Name),
			Table:    s.Name.Table,
		}, nil
	case *parsers.TruncateTable:
		return &plan.TruncateTablePlan{
			Database: b.databaseOf(s.Name),
			Table:    s.Name.Table,
			Purge:    s.Purge,
		}, nil
	case *parsers.DescribeTable:
		return &plan.DescribeTablePlan{Database: b.databaseOf(s.Name), Table: s.Name.Table}, nil
	case *parsers.UseDatabase:
		return &plan.UseDatabasePlan{Database: s.Name}, nil
	case *parsers.ShowTables:
		return b.buildShowTables(s)
	case *parsers.ShowDatabases:
		return b.buildShowDatabases(s)
	case *parsers.ShowSettings:
		return b.buildShowSettings()
	case *parsers.ShowGrants:
		return &plan.ShowGrantsPlan{User: s.Name, Hostname: s.Hostname}, nil
	case *parsers.CreateUser:
		return &plan.CreateUserPlan{
			IfNotExists: s.IfNotExists,
			User:        s.Name,
			Hostname:    s.Hostname,
			Password:    []byte(s.Password),
			AuthType:    s.AuthType,
		}, nil
	case *parsers.AlterUser:
		return b.buildAlterUser(s)
	case *parsers.DropUser:
		return &plan.DropUserPlan{IfExists: s.IfExists, User: s.Name, Hostname: s.Hostname}, nil
	case *parsers.Grant:
		return &plan.GrantPrivilegePlan{
			User:       s.Name,
			Hostname:   s.Hostname,
			Object:     b.grantObject(s.On),
			Privileges: s.Privileges,
		}, nil
	case *parsers.Revoke:
		return &plan.RevokePrivilegePlan{
			User:       s.Name,
			Hostname:   s.Hostname,
			Object:     b.grantObject(s.On),
			Privileges: s.Privileges,
		}, nil
	case *parsers.SetVariable:
		return b.buildSetVariable(s)
	}
	return nil, moerr.NewNYI(b.ctx, "statement %s", stmt)
}

func (b *builder) databaseOf(name parsers.TableName) string {
	if name.Database == "" {
		return b.cc.GetCurrentDatabase()
	}
	return name.Database
}

func (b *builder) buildCreateTable(s *parsers.CreateTable) (plan.Plan, error) {
	if len(s.Columns) == 0 {
		return nil, moerr.NewBadArguments(b.ctx, "table %s has no column", s.Name)
	}
	seen := make(map[string]bool, len(s.Columns))
	fields := make([]types.Field, len(s.Columns))
	for i, c := range s.Columns {
		key := strings.ToLower(c.Name)
		if seen[key] {
			return nil, moerr.NewBadArguments(b.ctx, "duplicate column %s", c.Name)
		}
		seen[key] = true
		fields[i] = types.NewField(c.Name, c.Type, c.Nullable)
	}
	return &plan.CreateTablePlan{
		IfNotExists: s.IfNotExists,
		Database:    b.databaseOf(s.Name),
		Table:       s.Name.Table,
		TableSchema: types.NewSchema(fields...),
		Engine:      s.Engine,
		Options:     s.Options,
	}, nil
}

func (b *builder) buildAlterUser(s *parsers.AlterUser) (plan.Plan, error) {
	name, host := s.Name, s.Hostname
	if s.CurrentUser {
		u := b.cc.GetCurrentUser()
		if u == nil {
			return nil, moerr.NewBadArguments(b.ctx, "no current user to alter")
		}
		name, host = u.Name, u.Hostname
	}
	auth := s.AuthType
	return &plan.AlterUserPlan{
		User:     name,
		Hostname: host,
		Password: []byte(s.Password),
		AuthType: &auth,
	}, nil
}

// grantObject resolves the database left implicit by "*" and "tbl".
func (b *builder) grantObject(on parsers.GrantOn) users.GrantObject {
	db := on.Database
	if db == "" {
		db = b.cc.GetCurrentDatabase()
	}
	switch on.Kind {
	case parsers.GrantOnDatabase:
		return users.DatabaseObject(db)
	case parsers.GrantOnTable:
		return users.TableObject(db, on.Table)
	}
	return users.GlobalObject()
}

func (b *builder) buildSetVariable(s *parsers.SetVariable) (plan.Plan, error) {
	vars := make([]plan.VarValue, len(s.Vars))
	for i, v := range s.Vars {
		vars[i].Variable = v.Name
		if id, ok := v.Value.(*parsers.Ident); ok {
			vars[i].Value = id.String()
			continue
		}
		val, err := b.evalConstant(v.Value)
		if err != nil {
			return nil, err
		}
		vars[i].Value = val.String()
	}
	return &plan.SetVariablePlan{Vars: vars}, nil
}

// evalConstant binds e over no input and folds it.
func (b *builder) evalConstant(e parsers.Expr) (types.DataValue, error) {
	bound, err := b.newBinder(plan.EmptySchema(), false).bind(e)
	if err != nil {
		return types.DataValue{}, err
	}
	if !plan.IsConstant(bound) {
		return types.DataValue{}, moerr.NewBadArguments(b.ctx, "expression %s is not constant", e)
	}
	return functions.EvalConstant(b.ctx, bound)
}

func (b *builder) buildCopy(s *parsers.Copy) (plan.Plan, error) {
	switch s.Format {
	case CopyFormatCSV, CopyFormatParquet:
	default:
		return nil, moerr.NewBadArguments(b.ctx, "unsupported copy format %s, expected CSV or PARQUET", s.Format)
	}
	db := b.databaseOf(s.Table)
	tbl, err := b.cc.GetTable(b.ctx, db, s.Table.Table)
	if err != nil {
		return nil, err
	}
	return &plan.CopyPlan{
		Database:    db,
		Table:       s.Table.Table,
		TableSchema: tbl.Schema(),
		Location:    s.Location,
		Format:      s.Format,
		Options:     s.Options,
	}, nil
}

const (
	CopyFormatCSV     = "CSV"
	CopyFormatParquet = "PARQUET"
)
