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

package plan

import (
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/users"
)

var emptySchema = types.NewSchema()

// EmptySchema is the result schema of statements returning no rows.
func EmptySchema() *types.Schema {
	return emptySchema
}

type CreateDatabasePlan struct {
	IfNotExists bool
	Database    string
	Engine      string
	Options     map[string]string
}

type DropDatabasePlan struct {
	IfExists bool
	Database string
}

type CreateTablePlan struct {
	IfNotExists bool
	Database    string
	Table       string
	TableSchema *types.Schema
	Engine      string
	Options     map[string]string
}

type DropTablePlan struct {
	IfExists bool
	Database string
	Table    string
}

type TruncateTablePlan struct {
	Database string
	Table    string
	Purge    bool
}

type UseDatabasePlan struct {
	Database string
}

type DescribeTablePlan struct {
	Database string
	Table    string
}

// InsertPlan writes into Database.Table. The rows come from Values, from
// Select, or, when both are nil, from the input stream of the interpreter.
type InsertPlan struct {
	Database    string
	Table       string
	TableID     uint64
	TableSchema *types.Schema
	Values      *batch.Batch
	Select      Plan
}

// CopyPlan loads the objects at Location into a table.
type CopyPlan struct {
	Database    string
	Table       string
	TableSchema *types.Schema
	Location    string
	Format      string
	Options     map[string]string
}

type CreateUserPlan struct {
	IfNotExists bool
	User        string
	Hostname    string
	Password    []byte
	AuthType    users.AuthType
}

// AlterUserPlan changes the password of a user. A nil AuthType keeps the
// current kind.
type AlterUserPlan struct {
	User     string
	Hostname string
	Password []byte
	AuthType *users.AuthType
}

type DropUserPlan struct {
	IfExists bool
	User     string
	Hostname string
}

type GrantPrivilegePlan struct {
	User       string
	Hostname   string
	Object     users.GrantObject
	Privileges users.Privileges
}

type RevokePrivilegePlan struct {
	User       string
	Hostname   string
	Object     users.GrantObject
	Privileges users.Privileges
}

// ShowGrantsPlan shows the grants of a user, the current one when User is empty.
type ShowGrantsPlan struct {
	User     string
	Hostname string
}

// ShowTablesPlan, ShowDatabasesPlan and ShowSettingsPlan run a SELECT over
// the system tables.
type ShowTablesPlan struct {
	Select *SelectPlan
}

type ShowDatabasesPlan struct {
	Select *SelectPlan
}

type ShowSettingsPlan struct {
	Select *SelectPlan
}

type ExplainKind uint8

const (
	ExplainSyntax ExplainKind = iota
	ExplainPipeline
)

type ExplainPlan struct {
	Kind  ExplainKind
	Input Plan
}

type VarValue struct {
	Variable string
	Value    string
}

type SetVariablePlan struct {
	Vars []VarValue
}

func (p *CreateDatabasePlan) Name() string  { return "CreateDatabasePlan" }
func (p *DropDatabasePlan) Name() string    { return "DropDatabasePlan" }
func (p *CreateTablePlan) Name() string     { return "CreateTablePlan" }
func (p *DropTablePlan) Name() string       { return "DropTablePlan" }
func (p *TruncateTablePlan) Name() string   { return "TruncateTablePlan" }
func (p *UseDatabasePlan) Name() string     { return "UseDatabasePlan" }
func (p *DescribeTablePlan) Name() string   { return "DescribeTablePlan" }
func (p *InsertPlan) Name() string          { return "InsertPlan" }
func (p *CopyPlan) Name() string            { return "CopyPlan" }
func (p *CreateUserPlan) Name() string      { return "CreateUserPlan" }
func (p *AlterUserPlan) Name() string       { return "AlterUserPlan" }
func (p *DropUserPlan) Name() string        { return "DropUserPlan" }
func (p *GrantPrivilegePlan) Name() string  { return "GrantPrivilegePlan" }
func (p *RevokePrivilegePlan) Name() string { return "RevokePrivilegePlan" }
func (p *ShowGrantsPlan) Name() string      { return "ShowGrantsPlan" }
func (p *ShowTablesPlan) Name() string      { return "ShowTablesPlan" }
func (p *ShowDatabasesPlan) Name() string   { return "ShowDatabasesPlan" }
func (p *ShowSettingsPlan) Name() string    { return "ShowSettingsPlan" }
func (p *ExplainPlan) Name() string         { return "ExplainPlan" }
func (p *SetVariablePlan) Name() string     { return "SetVariablePlan" }

func (p *CreateDatabasePlan) Schema() *types.Schema  { return emptySchema }
func (p *DropDatabasePlan) Schema() *types.Schema    { return emptySchema }
func (p *CreateTablePlan) Schema() *types.Schema     { return emptySchema }
func (p *DropTablePlan) Schema() *types.Schema       { return emptySchema }
func (p *TruncateTablePlan) Schema() *types.Schema   { return emptySchema }
func (p *UseDatabasePlan) Schema() *types.Schema     { return emptySchema }
func (p *InsertPlan) Schema() *types.Schema          { return emptySchema }
func (p *CopyPlan) Schema() *types.Schema            { return emptySchema }
func (p *CreateUserPlan) Schema() *types.Schema      { return emptySchema }
func (p *AlterUserPlan) Schema() *types.Schema       { return emptySchema }
func (p *DropUserPlan) Schema() *types.Schema        { return emptySchema }
func (p *GrantPrivilegePlan) Schema() *types.Schema  { return emptySchema }
func (p *RevokePrivilegePlan) Schema() *types.Schema { return emptySchema }
func (p *SetVariablePlan) Schema() *types.Schema     { return emptySchema }
func (p *ShowTablesPlan) Schema() *types.Schema      { return p.Select.Schema() }
func (p *ShowDatabasesPlan) Schema() *types.Schema   { return p.Select.Schema() }
func (p *ShowSettingsPlan) Schema() *types.Schema    { return p.Select.Schema() }

var describeSchema = types.NewSchema(
	types.NewField("Field", types.T_varchar, false),
	types.NewField("Type", types.T_varchar, false),
	types.NewField("Null", types.T_varchar, false),
)

func (p *DescribeTablePlan) Schema() *types.Schema { return describeSchema }

var showGrantsSchema = types.NewSchema(types.NewField("Grants", types.T_varchar, false))

func (p *ShowGrantsPlan) Schema() *types.Schema { return showGrantsSchema }

var explainSchema = types.NewSchema(types.NewField("explain", types.T_varchar, false))

func (p *ExplainPlan) Schema() *types.Schema { return explainSchema }

func (p *CreateDatabasePlan) String() string {
	return fmt.Sprintf("Create database %s, engine: %s, if_not_exists:%v, option: %v", p.Database, p.Engine, p.IfNotExists, p.Options)
}

func (p *DropDatabasePlan) String() string {
	return fmt.Sprintf("Drop database %s, if_exists:%v", p.Database, p.IfExists)
}

func (p *CreateTablePlan) String() string {
	return fmt.Sprintf("Create table %s.%s %s, engine: %s, if_not_exists:%v, option: %v",
		p.Database, p.Table, p.TableSchema, p.Engine, p.IfNotExists, p.Options)
}

func (p *DropTablePlan) String() string {
	return fmt.Sprintf("Drop table %s.%s, if_exists:%v", p.Database, p.Table, p.IfExists)
}

func (p *TruncateTablePlan) String() string {
	return fmt.Sprintf("Truncate table %s.%s, purge:%v", p.Database, p.Table, p.Purge)
}

func (p *UseDatabasePlan) String() string {
	return fmt.Sprintf("Use database %s", p.Database)
}

func (p *DescribeTablePlan) String() string {
	return fmt.Sprintf("Describe table %s.%s", p.Database, p.Table)
}

func (p *InsertPlan) String() string {
	switch {
	case p.Values != nil:
		return fmt.Sprintf("Insert into %s.%s, values: %d rows", p.Database, p.Table, p.Values.RowCount())
	case p.Select != nil:
		return fmt.Sprintf("Insert into %s.%s, select:\n%s", p.Database, p.Table, Format(p.Select))
	}
	return fmt.Sprintf("Insert into %s.%s, from input stream", p.Database, p.Table)
}

func (p *CopyPlan) String() string {
	return fmt.Sprintf("Copy into %s.%s from '%s', format: %s, options: %v", p.Database, p.Table, p.Location, p.Format, p.Options)
}

func (p *CreateUserPlan) String() string {
	return fmt.Sprintf("Create user %s, auth_type: %s", users.Identity(p.User, p.Hostname), p.AuthType)
}

func (p *AlterUserPlan) String() string {
	return fmt.Sprintf("Alter user %s", users.Identity(p.User, p.Hostname))
}

func (p *DropUserPlan) String() string {
	return fmt.Sprintf("Drop user %s, if_exists:%v", users.Identity(p.User, p.Hostname), p.IfExists)
}

func (p *GrantPrivilegePlan) String() string {
	return fmt.Sprintf("Grant %s on %s to %s", p.Privileges, p.Object, users.Identity(p.User, p.Hostname))
}

func (p *RevokePrivilegePlan) String() string {
	return fmt.Sprintf("Revoke %s on %s from %s", p.Privileges, p.Object, users.Identity(p.User, p.Hostname))
}

func (p *ShowGrantsPlan) String() string {
	if p.User == "" {
		return "Show grants"
	}
	return fmt.Sprintf("Show grants for %s", users.Identity(p.User, p.Hostname))
}

func (p *ShowTablesPlan) String() string    { return Format(p.Select.Input) }
func (p *ShowDatabasesPlan) String() string { return Format(p.Select.Input) }
func (p *ShowSettingsPlan) String() string  { return Format(p.Select.Input) }

func (p *ExplainPlan) String() string {
	return Format(p.Input)
}

func (p *SetVariablePlan) String() string {
	parts := make([]string, len(p.Vars))
	for i, v := range p.Vars {
		parts[i] = fmt.Sprintf("%s = %s", v.Variable, v.Value)
	}
	return "Set " + strings.Join(parts, ", ")
}
