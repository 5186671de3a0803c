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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/users"
)

func parseOK(t *testing.T, sql string) Statement {
	stmt, err := ParseOne(context.Background(), sql)
	require.NoError(t, err, sql)
	return stmt
}

func parseErr(t *testing.T, sql, msg string) {
	_, err := ParseOne(context.Background(), sql)
	require.Error(t, err, sql)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrSyntax), sql)
	require.Equal(t, msg, err.Error(), sql)
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize(context.Background(), "SELECT `a b`, 'it''s', \"x\\ny\", 1.5e3 -- tail\n/* c */ <> >=")
	require.NoError(t, err)
	kinds := []TokenKind{TokenWord, TokenQuotedIdent, TokenSymbol, TokenString, TokenSymbol, TokenString, TokenSymbol, TokenNumber, TokenSymbol, TokenSymbol, TokenEOF}
	require.Len(t, toks, len(kinds))
	for i, k := range kinds {
		require.Equal(t, k, toks[i].Kind, toks[i].String())
	}
	require.Equal(t, "a b", toks[1].Text)
	require.Equal(t, "it's", toks[3].Text)
	require.Equal(t, "x\ny", toks[5].Text)
	require.Equal(t, "1.5e3", toks[7].Text)
	require.Equal(t, "<>", toks[8].Text)

	_, err = Tokenize(context.Background(), "SELECT 'abc")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrSyntax))
	_, err = Tokenize(context.Background(), "SELECT ?")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrSyntax))
}

func TestDatabaseStatements(t *testing.T) {
	require.Equal(t, &CreateDatabase{Name: "db1", Options: map[string]string{}}, parseOK(t, "CREATE DATABASE db1"))
	require.Equal(t,
		&CreateDatabase{Name: "db1", Engine: "github", Options: map[string]string{"owner": "datafuselabs"}},
		parseOK(t, "CREATE DATABASE db1 engine = github OWNER = 'datafuselabs'"))
	require.Equal(t, &CreateDatabase{IfNotExists: true, Name: "db1", Options: map[string]string{}}, parseOK(t, "CREATE DATABASE IF NOT EXISTS db1"))
	require.Equal(t, &DropDatabase{Name: "db1"}, parseOK(t, "DROP DATABASE db1"))
	require.Equal(t, &DropDatabase{IfExists: true, Name: "db1"}, parseOK(t, "drop database if exists `db1`"))
	require.Equal(t, &UseDatabase{Name: "db1"}, parseOK(t, "USe db1"))
}

func TestTableStatements(t *testing.T) {
	require.Equal(t, &CreateTable{
		Name: TableName{Table: "t"},
		Columns: []ColumnDef{
			{Name: "c1", Type: types.T_int32},
			{Name: "c2", Type: types.T_int64, Nullable: true},
			{Name: "c3", Type: types.T_varchar},
			{Name: "c4", Type: types.T_uint8},
		},
		Engine:  "Memory",
		Options: map[string]string{"LOCATION": "/data/33.csv"},
	}, parseOK(t, "CREATE TABLE t(c1 int, c2 bigint NULL, c3 varchar(255) NOT NULL, c4 tinyint unsigned) ENGINE = Memory location = '/data/33.csv' "))

	ct := parseOK(t, "create table if not exists db1.t (a Int32)").(*CreateTable)
	require.True(t, ct.IfNotExists)
	require.Equal(t, TableName{Database: "db1", Table: "t"}, ct.Name)
	require.Equal(t, "", ct.Engine)

	parseErr(t, "CREATE TABLE t (a int32x)", "sql parser error: Unknown data type: int32x")

	require.Equal(t, &DropTable{Name: TableName{Table: "t1"}}, parseOK(t, "DROP TABLE t1"))
	require.Equal(t, &DropTable{IfExists: true, Name: TableName{Database: "db", Table: "t1"}}, parseOK(t, "DROP TABLE IF EXISTS db.t1"))
	require.Equal(t, &DescribeTable{Name: TableName{Table: "t1"}}, parseOK(t, "DESC t1"))
	require.Equal(t, &DescribeTable{Name: TableName{Table: "t1"}}, parseOK(t, "DESCRIBE t1"))
	require.Equal(t, &TruncateTable{Name: TableName{Table: "t1"}}, parseOK(t, "TRUNCATE TABLE t1"))
	require.Equal(t, &TruncateTable{Name: TableName{Table: "t1"}, Purge: true}, parseOK(t, "TRUNCATE TABLE t1 PURGE"))
}

func TestShowStatements(t *testing.T) {
	require.Equal(t, &ShowTables{}, parseOK(t, "SHOW TABLES"))
	require.Equal(t, &ShowTables{}, parseOK(t, "SHOW TABLES;"))
	require.Equal(t, &ShowTables{}, parseOK(t, "SHOW TABLES --comments should not in sql case1"))
	require.Equal(t, &ShowSettings{}, parseOK(t, "SHOW SETTINGS"))
	require.Equal(t, &ShowTables{Database: "ss"}, parseOK(t, "SHOW TABLES FROM `ss`"))
	require.Equal(t, &ShowTables{Database: "ss"}, parseOK(t, "SHOW TABLES IN `ss`"))

	like := parseOK(t, "SHOW TABLES LIKE 'aaa' --comments should not in sql case2").(*ShowTables)
	require.Equal(t, "name LIKE 'aaa'", like.Filter.String())

	where := parseOK(t, "SHOW TABLES WHERE t LIKE 'aaa' AND t LIKE 'a%'").(*ShowTables)
	require.Equal(t, "t LIKE 'aaa' AND t LIKE 'a%'", where.Filter.String())

	dbs := parseOK(t, "SHOW DATABASES WHERE Database = 'ss'").(*ShowDatabases)
	require.Equal(t, "name = 'ss'", dbs.Filter.String())
	dbs = parseOK(t, "SHOW DATABASES WHERE Database Like 'ss%'").(*ShowDatabases)
	require.Equal(t, "name LIKE 'ss%'", dbs.Filter.String())
	dbs = parseOK(t, "SHOW DATABASES LIKE SUBSTRING('ss%' FROM 1 FOR 3)").(*ShowDatabases)
	require.Equal(t, "name LIKE substring('ss%', 1, 3)", dbs.Filter.String())
	require.Equal(t, &ShowDatabases{}, parseOK(t, "SHOW DATABASES;"))

	require.Equal(t, &ShowGrants{}, parseOK(t, "SHOW GRANTS"))
	require.Equal(t, &ShowGrants{Name: "u", Hostname: "%"}, parseOK(t, "SHOW GRANTS FOR 'u'"))
}

func TestCreateUser(t *testing.T) {
	cases := []struct {
		sql  string
		want *CreateUser
	}{
		{"CREATE USER 'test'@'localhost' IDENTIFIED BY 'password'",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthSha256, Password: "password"}},
		{"CREATE USER 'test'@'localhost' IDENTIFIED WITH plaintext_password BY 'password'",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthPlainText, Password: "password"}},
		{"CREATE USER 'test'@'localhost' IDENTIFIED WITH double_sha1_password BY 'password'",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthDoubleSha1, Password: "password"}},
		{"CREATE USER 'test'@'localhost' IDENTIFIED WITH no_password",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthNone}},
		{"CREATE USER IF NOT EXISTS 'test'@'localhost' IDENTIFIED WITH sha256_password BY 'password'",
			&CreateUser{IfNotExists: true, Name: "test", Hostname: "localhost", AuthType: users.AuthSha256, Password: "password"}},
		{"CREATE USER 'test@localhost' IDENTIFIED WITH sha256_password BY 'password'",
			&CreateUser{Name: "test@localhost", Hostname: "%", AuthType: users.AuthSha256, Password: "password"}},
		{"CREATE USER 'test'@'localhost' NOT IDENTIFIED",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthNone}},
		{"CREATE USER 'test'@'localhost'",
			&CreateUser{Name: "test", Hostname: "localhost", AuthType: users.AuthNone}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, parseOK(t, c.sql), c.sql)
	}

	parseErr(t, "CREATE USER 'test'@'localhost' IDENTIFIED WITH no_password BY 'password'",
		"sql parser error: Expected end of statement, found: BY")
	parseErr(t, "CREATE USER 'test'@'localhost' IDENTIFIED WITH sha256_password",
		"sql parser error: Expected keyword BY")
	parseErr(t, "CREATE USER 'test'@'localhost' IDENTIFIED WITH sha256_password BY",
		"sql parser error: Expected literal string, found: EOF")
	parseErr(t, "CREATE USER 'test'@'localhost' IDENTIFIED WITH sha256_password BY ''",
		"sql parser error: Missing password")
}

func TestAlterAndDropUser(t *testing.T) {
	require.Equal(t,
		&AlterUser{Name: "test", Hostname: "localhost", AuthType: users.AuthSha256, Password: "password"},
		parseOK(t, "ALTER USER 'test'@'localhost' IDENTIFIED BY 'password'"))
	require.Equal(t,
		&AlterUser{CurrentUser: true, AuthType: users.AuthSha256, Password: "password"},
		parseOK(t, "ALTER USER USER() IDENTIFIED BY 'password'"))
	require.Equal(t,
		&AlterUser{Name: "test", Hostname: "localhost", AuthType: users.AuthNone},
		parseOK(t, "ALTER USER 'test'@'localhost' NOT IDENTIFIED"))
	parseErr(t, "ALTER USER 'test'@'localhost' IDENTIFIED WITH sha256_password BY ''",
		"sql parser error: Missing password")

	require.Equal(t, &DropUser{Name: "test", Hostname: "127.0.0.1"}, parseOK(t, "DROP USER 'test'@'127.0.0.1'"))
	require.Equal(t, &DropUser{Name: "test", Hostname: "%"}, parseOK(t, "DROP USER 'test'"))
	require.Equal(t, &DropUser{IfExists: true, Name: "test", Hostname: "%"}, parseOK(t, "DROP USER IF EXISTS 'test'"))
}

func TestGrant(t *testing.T) {
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeAll, On: GrantOn{Kind: GrantOnDatabase}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT ALL ON * TO 'test'@'localhost'"))
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeAll, On: GrantOn{Kind: GrantOnGlobal}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT ALL PRIVILEGES ON *.* TO 'test'@'localhost'"))
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeInsert, On: GrantOn{Kind: GrantOnTable, Database: "db1", Table: "tb1"}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT INSERT ON `db1`.`tb1` TO 'test'@'localhost'"))
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeInsert, On: GrantOn{Kind: GrantOnTable, Table: "tb1"}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT INSERT ON `tb1` TO 'test'@'localhost'"))
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeInsert, On: GrantOn{Kind: GrantOnDatabase, Database: "db1"}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT INSERT ON `db1`.'*' TO 'test'@'localhost'"))
	require.Equal(t,
		&Grant{Privileges: users.PrivilegeSelect | users.PrivilegeCreate, On: GrantOn{Kind: GrantOnDatabase}, Name: "test", Hostname: "localhost"},
		parseOK(t, "GRANT CREATE, SELECT ON * TO 'test'@'localhost'"))
	require.Equal(t,
		&Revoke{Privileges: users.PrivilegeSelect, On: GrantOn{Kind: GrantOnDatabase, Database: "db1"}, Name: "u", Hostname: "%"},
		parseOK(t, "REVOKE SELECT ON db1.* FROM 'u'"))

	parseErr(t, "GRANT TEST, ON * TO 'test'@'localhost'", "sql parser error: Expected privilege type, found: TEST")
	parseErr(t, "GRANT SELECT, ON * TO 'test'@'localhost'", "sql parser error: Expected privilege type, found: ON")
	parseErr(t, "GRANT SELECT IN * TO 'test'@'localhost'", "sql parser error: Expected keyword ON, found: IN")
	parseErr(t, "GRANT SELECT ON * 'test'@'localhost'", "sql parser error: Expected keyword TO, found: 'test'")
	parseErr(t, "GRANT INSERT ON *.`tb1` TO 'test'@'localhost'", "sql parser error: Expected whitespace, found: .")
}

func TestInsertCopySet(t *testing.T) {
	ins := parseOK(t, "INSERT INTO db1.t (a, b) VALUES (1, 'x'), (-2, NULL)").(*Insert)
	require.Equal(t, TableName{Database: "db1", Table: "t"}, ins.Table)
	require.Equal(t, []string{"a", "b"}, ins.Columns)
	require.Len(t, ins.Values, 2)
	require.Equal(t, NewNumberLiteral("-2"), ins.Values[1][0])
	require.Equal(t, &Literal{Kind: LiteralNull}, ins.Values[1][1])

	sel := parseOK(t, "INSERT INTO t SELECT number FROM numbers(3)").(*Insert)
	require.NotNil(t, sel.Select)
	require.Nil(t, sel.Values)

	require.Equal(t, &Insert{Table: TableName{Table: "t"}}, parseOK(t, "INSERT INTO t"))

	require.Equal(t, &Copy{
		Table:    TableName{Table: "test_csv"},
		Location: "@my_ext_stage/tutorials/sample.csv",
		Format:   "CSV",
		Options:  map[string]string{"csv_header": "1", "csv_delimitor": ","},
	}, parseOK(t, "copy into test_csv from '@my_ext_stage/tutorials/sample.csv' format csv csv_header = 1 csv_delimitor = ',';"))

	set := parseOK(t, "SET max_threads = 4, MAX_BLOCK_SIZE = 100").(*SetVariable)
	require.Equal(t, []VarAssign{
		{Name: "max_threads", Value: NewNumberLiteral("4")},
		{Name: "max_block_size", Value: NewNumberLiteral("100")},
	}, set.Vars)
}

func TestSelect(t *testing.T) {
	s := parseOK(t, "SELECT a, b + 1 AS c, count(*), sum(DISTINCT x) total FROM db.t WHERE a > 1 AND NOT b IS NULL GROUP BY a ORDER BY a DESC, c LIMIT 10 OFFSET 2").(*Select)
	require.Len(t, s.Items, 4)
	require.Equal(t, "c", s.Items[1].Alias)
	require.Equal(t, "b + 1", s.Items[1].Expr.String())
	require.Equal(t, "count(*)", s.Items[2].Expr.String())
	require.Equal(t, "total", s.Items[3].Alias)
	require.Equal(t, "sum(DISTINCT x)", s.Items[3].Expr.String())
	require.Equal(t, TableName{Database: "db", Table: "t"}, s.From.Name)
	require.Nil(t, s.From.Args)
	require.Equal(t, "a > 1 AND NOT b IS NULL", s.Where.String())
	require.Len(t, s.GroupBy, 1)
	require.Equal(t, []OrderItem{{Expr: NewIdent("a"), Desc: true}, {Expr: NewIdent("c")}}, s.OrderBy)
	require.Equal(t, NewNumberLiteral("10"), s.Limit)
	require.Equal(t, NewNumberLiteral("2"), s.Offset)

	s = parseOK(t, "select * from numbers(10) limit 2, 3").(*Select)
	require.Equal(t, []SelectItem{{}}, s.Items)
	require.Equal(t, []Expr{NewNumberLiteral("10")}, s.From.Args)
	require.Equal(t, NewNumberLiteral("3"), s.Limit)
	require.Equal(t, NewNumberLiteral("2"), s.Offset)

	// precedence
	s = parseOK(t, "SELECT 1 + 2 * 3 = 7 OR a LIKE 'x%' AND b NOT LIKE 'y'").(*Select)
	or := s.Items[0].Expr.(*BinaryExpr)
	require.Equal(t, "or", or.Op)
	require.Equal(t, "=", or.Left.(*BinaryExpr).Op)
	require.Equal(t, "+", or.Left.(*BinaryExpr).Left.(*BinaryExpr).Op)
	require.Equal(t, "not like", or.Right.(*BinaryExpr).Right.(*BinaryExpr).Op)

	s = parseOK(t, "SELECT CAST(a AS Int64), database(), 'a' || 'b'").(*Select)
	require.Equal(t, &CastExpr{Expr: NewIdent("a"), Type: types.T_int64}, s.Items[0].Expr)
	require.Equal(t, &FuncCall{Name: "database"}, s.Items[1].Expr)
	require.Equal(t, "concat", s.Items[2].Expr.(*FuncCall).Name)

	parseErr(t, "SELECT FROM t", "sql parser error: Expected an expression, found: FROM")
	parseErr(t, "SELECT 1 2", "sql parser error: Expected end of statement, found: 2")
	parseErr(t, "FOO BAR", "sql parser error: Expected an SQL statement, found: FOO")
}

func TestExplainAndMultiStatements(t *testing.T) {
	e := parseOK(t, "EXPLAIN PIPELINE SELECT 1").(*Explain)
	require.Equal(t, ExplainPipeline, e.Kind)
	e = parseOK(t, "EXPLAIN SELECT 1").(*Explain)
	require.Equal(t, ExplainSyntax, e.Kind)

	stmts, err := Parse(context.Background(), "USE db1; ; SHOW TABLES; SELECT 1;")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	_, err = ParseOne(context.Background(), "USE a; USE b")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrSyntax))
}

func TestStatementString(t *testing.T) {
	for _, sql := range []string{
		"CREATE DATABASE IF NOT EXISTS db1 ENGINE = GITHUB owner = 'x'",
		"CREATE TABLE db1.t (a Int32 NOT NULL, b String NULL) ENGINE = FUSE",
		"SELECT a, count(*) AS c FROM t WHERE a > 1 GROUP BY a ORDER BY a DESC LIMIT 3",
		"INSERT INTO t (a) VALUES (1), (2)",
		"GRANT SELECT,CREATE ON db1.* TO 'u'@'%'",
	} {
		stmt := parseOK(t, sql)
		again := parseOK(t, stmt.String())
		require.Equal(t, stmt, again, sql)
	}
}
