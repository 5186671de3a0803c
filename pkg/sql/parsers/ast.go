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

package parsers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/users"
)

// Statement is one parsed SQL statement.
type Statement interface {
	fmt.Stringer
	statement()
}

// TableName is a possibly database qualified table. An empty Database
// means the current one.
type TableName struct {
	Database string
	Table    string
}

func (n TableName) String() string {
	if n.Database == "" {
		return n.Table
	}
	return n.Database + "." + n.Table
}

type CreateDatabase struct {
	IfNotExists bool
	Name        string
	Engine      string
	Options     map[string]string
}

type DropDatabase struct {
	IfExists bool
	Name     string
}

type ColumnDef struct {
	Name     string
	Type     types.T
	Nullable bool
}

type CreateTable struct {
	IfNotExists bool
	Name        TableName
	Columns     []ColumnDef
	Engine      string
	// keys upper cased
	Options map[string]string
}

type DropTable struct {
	IfExists bool
	Name     TableName
}

type DescribeTable struct {
	Name TableName
}

type TruncateTable struct {
	Name  TableName
	Purge bool
}

type UseDatabase struct {
	Name string
}

// ShowTables lists the tables of Database, the current one when empty.
// LIKE 'p' is parsed into the equivalent Filter over the name column.
type ShowTables struct {
	Database string
	Filter   Expr
}

type ShowDatabases struct {
	Filter Expr
}

type ShowSettings struct{}

// ShowGrants shows the grants of the current user when Name is empty.
type ShowGrants struct {
	Name     string
	Hostname string
}

type CreateUser struct {
	IfNotExists bool
	Name        string
	Hostname    string
	AuthType    users.AuthType
	Password    string
}

// AlterUser changes the password of Name@Hostname, or of the current
// user when CurrentUser is set.
type AlterUser struct {
	CurrentUser bool
	Name        string
	Hostname    string
	AuthType    users.AuthType
	Password    string
}

type DropUser struct {
	IfExists bool
	Name     string
	Hostname string
}

type GrantOnKind uint8

const (
	// *.*
	GrantOnGlobal GrantOnKind = iota
	// db.* or *, the latter in the current database
	GrantOnDatabase
	// db.tbl or tbl
	GrantOnTable
)

type GrantOn struct {
	Kind     GrantOnKind
	Database string
	Table    string
}

type Grant struct {
	Privileges users.Privileges
	On         GrantOn
	Name       string
	Hostname   string
}

type Revoke struct {
	Privileges users.Privileges
	On         GrantOn
	Name       string
	Hostname   string
}

// Insert reads its rows from Values, from Select, or from the input of
// the statement when both are empty.
type Insert struct {
	Table   TableName
	Columns []string
	Values  [][]Expr
	Select  *Select
}

type Copy struct {
	Table    TableName
	Location string
	Format   string
	// keys lower cased
	Options map[string]string
}

type SetVariable struct {
	Vars []VarAssign
}

type VarAssign struct {
	Name  string
	Value Expr
}

type ExplainKind uint8

const (
	ExplainSyntax ExplainKind = iota
	ExplainPipeline
)

type Explain struct {
	Kind   ExplainKind
	Select *Select
}

type SelectItem struct {
	// nil for *
	Expr  Expr
	Alias string
}

// TableRef is a table, or a table function call when Args is not nil.
type TableRef struct {
	Name TableName
	Args []Expr
}

type OrderItem struct {
	Expr Expr
	Desc bool
}

type Select struct {
	Items   []SelectItem
	From    *TableRef
	Where   Expr
	GroupBy []Expr
	OrderBy []OrderItem
	Limit   Expr
	Offset  Expr
}

func (*CreateDatabase) statement() {}
func (*DropDatabase) statement()   {}
func (*CreateTable) statement()    {}
func (*DropTable) statement()      {}
func (*DescribeTable) statement()  {}
func (*TruncateTable) statement()  {}
func (*UseDatabase) statement()    {}
func (*ShowTables) statement()     {}
func (*ShowDatabases) statement()  {}
func (*ShowSettings) statement()   {}
func (*ShowGrants) statement()     {}
func (*CreateUser) statement()     {}
func (*AlterUser) statement()      {}
func (*DropUser) statement()       {}
func (*Grant) statement()          {}
func (*Revoke) statement()         {}
func (*Insert) statement()         {}
func (*Copy) statement()           {}
func (*SetVariable) statement()    {}
func (*Explain) statement()        {}
func (*Select) statement()         {}

func (s *CreateDatabase) String() string {
	var b strings.Builder
	b.WriteString("CREATE DATABASE ")
	if s.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(s.Name)
	if s.Engine != "" {
		b.WriteString(" ENGINE = " + s.Engine)
	}
	writeOptions(&b, s.Options)
	return b.String()
}

func (s *DropDatabase) String() string {
	return "DROP DATABASE " + ifExists(s.IfExists) + s.Name
}

func (s *CreateTable) String() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if s.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(s.Name.String())
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		null := "NOT NULL"
		if c.Nullable {
			null = "NULL"
		}
		cols[i] = fmt.Sprintf("%s %s %s", c.Name, c.Type, null)
	}
	b.WriteString(" (" + strings.Join(cols, ", ") + ")")
	if s.Engine != "" {
		b.WriteString(" ENGINE = " + s.Engine)
	}
	writeOptions(&b, s.Options)
	return b.String()
}

func (s *DropTable) String() string {
	return "DROP TABLE " + ifExists(s.IfExists) + s.Name.String()
}

func (s *DescribeTable) String() string { return "DESCRIBE " + s.Name.String() }
func (s *UseDatabase) String() string   { return "USE " + s.Name }
func (s *ShowSettings) String() string  { return "SHOW SETTINGS" }

func (s *TruncateTable) String() string {
	if s.Purge {
		return "TRUNCATE TABLE " + s.Name.String() + " PURGE"
	}
	return "TRUNCATE TABLE " + s.Name.String()
}

func (s *ShowTables) String() string {
	out := "SHOW TABLES"
	if s.Database != "" {
		out += " FROM " + s.Database
	}
	if s.Filter != nil {
		out += " WHERE " + s.Filter.String()
	}
	return out
}

func (s *ShowDatabases) String() string {
	if s.Filter != nil {
		return "SHOW DATABASES WHERE " + s.Filter.String()
	}
	return "SHOW DATABASES"
}

func (s *ShowGrants) String() string {
	if s.Name == "" {
		return "SHOW GRANTS"
	}
	return "SHOW GRANTS FOR " + users.Identity(s.Name, s.Hostname)
}

func (s *CreateUser) String() string {
	out := "CREATE USER "
	if s.IfNotExists {
		out += "IF NOT EXISTS "
	}
	return out + users.Identity(s.Name, s.Hostname) + " IDENTIFIED WITH " + s.AuthType.String()
}

func (s *AlterUser) String() string {
	if s.CurrentUser {
		return "ALTER USER USER() IDENTIFIED WITH " + s.AuthType.String()
	}
	return "ALTER USER " + users.Identity(s.Name, s.Hostname) + " IDENTIFIED WITH " + s.AuthType.String()
}

func (s *DropUser) String() string {
	return "DROP USER " + ifExists(s.IfExists) + users.Identity(s.Name, s.Hostname)
}

func (o GrantOn) String() string {
	switch o.Kind {
	case GrantOnGlobal:
		return "*.*"
	case GrantOnDatabase:
		if o.Database == "" {
			return "*"
		}
		return o.Database + ".*"
	}
	if o.Database == "" {
		return o.Table
	}
	return o.Database + "." + o.Table
}

func (s *Grant) String() string {
	return fmt.Sprintf("GRANT %s ON %s TO %s", s.Privileges, s.On, users.Identity(s.Name, s.Hostname))
}

func (s *Revoke) String() string {
	return fmt.Sprintf("REVOKE %s ON %s FROM %s", s.Privileges, s.On, users.Identity(s.Name, s.Hostname))
}

func (s *Insert) String() string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + s.Table.String())
	if len(s.Columns) > 0 {
		b.WriteString(" (" + strings.Join(s.Columns, ", ") + ")")
	}
	switch {
	case s.Select != nil:
		b.WriteString(" " + s.Select.String())
	case len(s.Values) > 0:
		rows := make([]string, len(s.Values))
		for i, row := range s.Values {
			rows[i] = "(" + joinExprs(row) + ")"
		}
		b.WriteString(" VALUES " + strings.Join(rows, ", "))
	}
	return b.String()
}

func (s *Copy) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "COPY INTO %s FROM '%s' FORMAT %s", s.Table, s.Location, s.Format)
	writeOptions(&b, s.Options)
	return b.String()
}

func (s *SetVariable) String() string {
	parts := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		parts[i] = v.Name + " = " + v.Value.String()
	}
	return "SET " + strings.Join(parts, ", ")
}

func (s *Explain) String() string {
	if s.Kind == ExplainPipeline {
		return "EXPLAIN PIPELINE " + s.Select.String()
	}
	return "EXPLAIN " + s.Select.String()
}

func (s *Select) String() string {
	var b strings.Builder
	items := make([]string, len(s.Items))
	for i, it := range s.Items {
		switch {
		case it.Expr == nil:
			items[i] = "*"
		case it.Alias != "":
			items[i] = it.Expr.String() + " AS " + it.Alias
		default:
			items[i] = it.Expr.String()
		}
	}
	b.WriteString("SELECT " + strings.Join(items, ", "))
	if s.From != nil {
		b.WriteString(" FROM " + s.From.Name.String())
		if s.From.Args != nil {
			b.WriteString("(" + joinExprs(s.From.Args) + ")")
		}
	}
	if s.Where != nil {
		b.WriteString(" WHERE " + s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY " + joinExprs(s.GroupBy))
	}
	if len(s.OrderBy) > 0 {
		parts := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			parts[i] = o.Expr.String()
			if o.Desc {
				parts[i] += " DESC"
			}
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if s.Limit != nil {
		b.WriteString(" LIMIT " + s.Limit.String())
	}
	if s.Offset != nil {
		b.WriteString(" OFFSET " + s.Offset.String())
	}
	return b.String()
}

func ifExists(b bool) string {
	if b {
		return "IF EXISTS "
	}
	return ""
}

func writeOptions(b *strings.Builder, opts map[string]string) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s = '%s'", k, opts[k])
	}
}
