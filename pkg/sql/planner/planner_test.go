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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/users"
)

func newTestContext(t *testing.T) *sessions.QueryContext {
	conf := config.NewDefaultConfig()
	conf.Storage.Type = config.StorageTypeMemory
	conf.Meta.Backend = config.MetaBackendMemory
	conf.Query.NumCPUs = 4
	ctx := context.Background()
	m, err := sessions.NewSessionManager(ctx, conf)
	require.NoError(t, err)
	s, err := m.CreateSession("test")
	require.NoError(t, err)
	qctx := s.CreateQueryContext(ctx)
	t.Cleanup(func() {
		qctx.Release()
		require.NoError(t, m.Shutdown(ctx))
	})

	schema := types.NewSchema(
		types.NewField("a", types.T_int32, false),
		types.NewField("b", types.T_varchar, true),
	)
	require.NoError(t, qctx.GetCatalog().CreateDatabase(ctx, &plan.CreateDatabasePlan{Database: "db1"}))
	require.NoError(t, qctx.GetCatalog().CreateTable(ctx, &plan.CreateTablePlan{
		Database: "db1", Table: "t", TableSchema: schema, Engine: catalog.MemoryTableEngine,
	}))
	return qctx
}

func build(t *testing.T, qctx *sessions.QueryContext, sql string) plan.Plan {
	p, err := BuildSQL(context.Background(), qctx, sql)
	require.NoError(t, err)
	return p
}

func buildErr(qctx *sessions.QueryContext, sql string) error {
	_, err := BuildSQL(context.Background(), qctx, sql)
	return err
}

// chain lists the node names from the root of p down to its source.
func chain(p plan.Plan) []string {
	var names []string
	for p != nil {
		names = append(names, p.Name())
		u, ok := p.(plan.UnaryPlan)
		if !ok {
			break
		}
		p = u.Child()
	}
	return names
}

func TestBuildSelect(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "SELECT a + 1 AS x, b FROM db1.t WHERE a > 1 ORDER BY x DESC LIMIT 2 OFFSET 1")
	require.Equal(t, []string{
		"SelectPlan", "ProjectionPlan", "LimitPlan", "SortPlan", "ExpressionPlan", "FilterPlan", "ReadDataSourcePlan",
	}, chain(p))
	require.Equal(t, []string{"x", "b"}, p.Schema().Names())
	require.Equal(t, types.T_int64, p.Schema().Field(0).Typ)

	limit := p.(*plan.SelectPlan).Input.(*plan.ProjectionPlan).Input.(*plan.LimitPlan)
	require.Equal(t, 2, limit.Limit)
	require.Equal(t, 1, limit.Offset)
	sort := limit.Input.(*plan.SortPlan)
	require.Len(t, sort.Items, 1)
	require.Equal(t, "x", sort.Items[0].Expr.String())
	require.False(t, sort.Items[0].Asc)

	source := plan.SourceOf(p)
	require.NotNil(t, source)
	require.Equal(t, "db1", source.Database)
	require.Equal(t, "t", source.Table)
	require.False(t, source.IsTableFunction())

	// order by a column outside the select list is computed but not returned
	p = build(t, qctx, "SELECT b FROM db1.t ORDER BY a")
	require.Equal(t, []string{"b"}, p.Schema().Names())
	expr := p.(*plan.SelectPlan).Input.(*plan.ProjectionPlan).Input.(*plan.SortPlan).Input.(*plan.ExpressionPlan)
	require.Equal(t, []string{"b", "a"}, expr.Schema().Names())

	p = build(t, qctx, "SELECT * FROM db1.t")
	require.Equal(t, []string{"a", "b"}, p.Schema().Names())
}

func TestBuildSelectWithoutFrom(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "SELECT 1, -200, 3.5, 'x', database(), current_user()")
	schema := p.Schema()
	require.Equal(t, types.T_uint8, schema.Field(0).Typ)
	require.Equal(t, types.T_int16, schema.Field(1).Typ)
	require.Equal(t, types.T_float64, schema.Field(2).Typ)
	require.Equal(t, types.T_varchar, schema.Field(3).Typ)
	require.Equal(t, "database()", schema.Field(4).Name)
	require.Equal(t, "current_user()", schema.Field(5).Name)
	require.Equal(t, "one", plan.SourceOf(p).Table)

	expr := p.(*plan.SelectPlan).Input.(*plan.ProjectionPlan).Input.(*plan.ExpressionPlan)
	db := expr.Exprs[4].(*plan.Alias).E.(*plan.Literal)
	require.Equal(t, "default", db.Value.Str())
	user := expr.Exprs[5].(*plan.Alias).E.(*plan.Literal)
	require.Equal(t, users.Identity(users.RootUserName, users.AnyHost), user.Value.Str())
}

func TestBuildAggregation(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "SELECT count(*) FROM db1.t")
	require.Equal(t, []string{
		"SelectPlan", "ProjectionPlan", "ExpressionPlan", "AggregatorFinalPlan", "AggregatorPartialPlan", "ReadDataSourcePlan",
	}, chain(p))
	require.Equal(t, types.T_uint64, p.Schema().Field(0).Typ)

	p = build(t, qctx, "SELECT b, sum(a) + 1 AS s FROM db1.t GROUP BY b ORDER BY max(a)")
	require.Equal(t, []string{"b", "s"}, p.Schema().Names())
	sort := p.(*plan.SelectPlan).Input.(*plan.ProjectionPlan).Input.(*plan.SortPlan)
	final := sort.Input.(*plan.ExpressionPlan).Input.(*plan.AggregatorFinalPlan)
	require.Len(t, final.Aggs, 2)
	require.Len(t, final.GroupBy, 1)

	err := buildErr(qctx, "SELECT a, count(*) FROM db1.t GROUP BY b")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	err = buildErr(qctx, "SELECT a FROM db1.t WHERE count(*) > 1")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	err = buildErr(qctx, "SELECT sum(count(a)) FROM db1.t")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestBuildSelectErrors(t *testing.T) {
	qctx := newTestContext(t)

	err := buildErr(qctx, "SELECT c FROM db1.t")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	require.Contains(t, err.Error(), "Unknown column c")

	err = buildErr(qctx, "SELECT a FROM db1.nope")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownTable))

	err = buildErr(qctx, "SELECT nope(a) FROM db1.t")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownFunction))

	err = buildErr(qctx, "SELECT a FROM db1.t WHERE a + 1")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	err = buildErr(qctx, "SELECT a FROM db1.t LIMIT -1")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestBuildTableFunction(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "SELECT number FROM numbers(10) WHERE number % 2 = 0")
	source := plan.SourceOf(p)
	require.True(t, source.IsTableFunction())
	require.Equal(t, "numbers", source.Table)
	require.Len(t, source.TableArgs, 1)
	require.Equal(t, uint64(10), source.TableArgs[0].Uint64())
	require.Equal(t, types.T_uint64, p.Schema().Field(0).Typ)

	err := buildErr(qctx, "SELECT * FROM numbers(number)")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestBuildShow(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "SHOW TABLES FROM db1 LIKE 'a%'")
	show, ok := p.(*plan.ShowTablesPlan)
	require.True(t, ok)
	require.Equal(t, []string{"Tables_in_db1"}, show.Schema().Names())
	require.Equal(t, "tables", plan.SourceOf(show.Select).Table)

	err := buildErr(qctx, "SHOW TABLES FROM nope")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase))

	p = build(t, qctx, "SHOW DATABASES WHERE Database = 'db1'")
	require.Equal(t, []string{"Database"}, p.Schema().Names())

	p = build(t, qctx, "SHOW SETTINGS")
	require.Equal(t, []string{"name", "value", "default_value", "description"}, p.Schema().Names())

	p = build(t, qctx, "SHOW GRANTS")
	require.Equal(t, &plan.ShowGrantsPlan{}, p)
}

func TestBuildInsert(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "INSERT INTO db1.t VALUES (1, 'x'), (2, NULL)")
	ins := p.(*plan.InsertPlan)
	require.Equal(t, "db1", ins.Database)
	require.Equal(t, 2, ins.Values.RowCount())
	require.Equal(t, types.NewInt32(1), ins.Values.Row(0)[0])
	require.True(t, ins.Values.Row(1)[1].IsNull())

	p = build(t, qctx, "INSERT INTO db1.t (a) VALUES (7)")
	row := p.(*plan.InsertPlan).Values.Row(0)
	require.Equal(t, types.NewInt32(7), row[0])
	require.True(t, row[1].IsNull())

	err := buildErr(qctx, "INSERT INTO db1.t (b) VALUES ('x')")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	err = buildErr(qctx, "INSERT INTO db1.t VALUES (NULL, 'x')")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	err = buildErr(qctx, "INSERT INTO db1.t VALUES (1)")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	p = build(t, qctx, "INSERT INTO db1.t SELECT a, b FROM db1.t")
	require.NotNil(t, p.(*plan.InsertPlan).Select)
	err = buildErr(qctx, "INSERT INTO db1.t SELECT a FROM db1.t")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	// rows come from the statement input
	p = build(t, qctx, "INSERT INTO db1.t")
	require.Nil(t, p.(*plan.InsertPlan).Values)
	require.Nil(t, p.(*plan.InsertPlan).Select)
}

func TestBuildStatements(t *testing.T) {
	qctx := newTestContext(t)

	p := build(t, qctx, "CREATE TABLE t2(c1 int, c2 varchar null) ENGINE = Memory")
	ct := p.(*plan.CreateTablePlan)
	require.Equal(t, "default", ct.Database)
	require.Equal(t, "Memory", ct.Engine)
	require.False(t, ct.TableSchema.Field(0).Nullable)
	require.True(t, ct.TableSchema.Field(1).Nullable)

	err := buildErr(qctx, "CREATE TABLE t3(c int, C int)")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	p = build(t, qctx, "GRANT SELECT, CREATE ON * TO 'u'@'%'")
	g := p.(*plan.GrantPrivilegePlan)
	require.Equal(t, "u", g.User)
	require.Equal(t, "Grant SELECT,CREATE on 'default'.* to 'u'@'%'", g.String())
	require.Equal(t, users.DatabaseObject("default"), g.Object)
	require.Equal(t, users.PrivilegeSelect|users.PrivilegeCreate, g.Privileges)

	p = build(t, qctx, "REVOKE ALL ON *.* FROM 'u'")
	r := p.(*plan.RevokePrivilegePlan)
	require.Equal(t, users.GlobalObject(), r.Object)
	require.Equal(t, users.AnyHost, r.Hostname)

	p = build(t, qctx, "GRANT INSERT ON t TO 'u'@'localhost'")
	require.Equal(t, users.TableObject("default", "t"), p.(*plan.GrantPrivilegePlan).Object)

	p = build(t, qctx, "ALTER USER USER() IDENTIFIED BY 'new'")
	alter := p.(*plan.AlterUserPlan)
	require.Equal(t, users.RootUserName, alter.User)
	require.Equal(t, []byte("new"), alter.Password)
	require.Equal(t, users.AuthSha256, *alter.AuthType)

	p = build(t, qctx, "SET max_threads = 1 + 1, max_block_size = 10")
	require.Equal(t, []plan.VarValue{{Variable: "max_threads", Value: "2"}, {Variable: "max_block_size", Value: "10"}},
		p.(*plan.SetVariablePlan).Vars)

	p = build(t, qctx, "COPY INTO db1.t FROM 's3://bucket/a.csv' FORMAT CSV")
	cp := p.(*plan.CopyPlan)
	require.Equal(t, "CSV", cp.Format)
	require.Equal(t, 2, cp.TableSchema.Len())
	err = buildErr(qctx, "COPY INTO db1.t FROM 'x' FORMAT JSON")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	p = build(t, qctx, "EXPLAIN PIPELINE SELECT a FROM db1.t")
	require.Equal(t, plan.ExplainPipeline, p.(*plan.ExplainPlan).Kind)

	p = build(t, qctx, "TRUNCATE TABLE db1.t PURGE")
	require.Equal(t, &plan.TruncateTablePlan{Database: "db1", Table: "t", Purge: true}, p)
}
