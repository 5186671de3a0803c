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

package tables

import (
	"context"
	"encoding/hex"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/users"
)

// SystemTableIDBase keeps the ids of system tables apart from the ids the
// metastore hands out.
const SystemTableIDBase uint64 = 1 << 48

// SystemTable produces all its rows on read from the state of the node.
type SystemTable struct {
	catalog.TableBase
	rows func(ctx context.Context, tctx catalog.TableContext) ([][]types.DataValue, error)
}

func newSystemTable(
	id uint64,
	name string,
	schema *types.Schema,
	rows func(ctx context.Context, tctx catalog.TableContext) ([][]types.DataValue, error),
) *SystemTable {
	info := catalog.NewTableInfo(catalog.SystemDatabaseName, name, schema, catalog.SystemTableEngine)
	info.ID = SystemTableIDBase + id
	return &SystemTable{TableBase: catalog.TableBase{Info: info}, rows: rows}
}

func (t *SystemTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	stats, parts := catalog.OnePartition(t.Info, 0, 0)
	stats.IsExact = false
	return stats, parts, nil
}

func (t *SystemTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	projection := source.PushDowns.Projection
	return catalog.NewPartitionStream(tctx, source.Schema(), func(ctx context.Context, _ plan.Partition) ([]*batch.Batch, error) {
		rows, err := t.rows(ctx, tctx)
		if err != nil {
			return nil, err
		}
		bat, err := batch.FromValues(t.Schema(), rows)
		if err != nil {
			return nil, err
		}
		if projection != nil {
			bat = bat.Project(projection)
		}
		return []*batch.Batch{bat}, nil
	}), nil
}

// SystemTables returns the tables of the system database, ordered by id.
func SystemTables() []*SystemTable {
	return []*SystemTable{
		newSystemTable(1, "one", oneSchema, oneRows),
		newSystemTable(2, "users", usersSchema, usersRows),
		newSystemTable(3, "databases", databasesSchema, databasesRows),
		newSystemTable(4, "tables", tablesSchema, tablesRows),
		newSystemTable(5, "settings", settingsSchema, settingsRows),
		newSystemTable(6, "functions", functionsSchema, functionsRows),
		newSystemTable(7, "engines", enginesSchema, enginesRows),
	}
}

var oneSchema = types.NewSchema(types.NewField("dummy", types.T_uint8, false))

func oneRows(context.Context, catalog.TableContext) ([][]types.DataValue, error) {
	return [][]types.DataValue{{types.NewUInt8(1)}}, nil
}

var usersSchema = types.NewSchema(
	types.NewField("name", types.T_varchar, false),
	types.NewField("hostname", types.T_varchar, false),
	types.NewField("password", types.T_varchar, true),
	types.NewField("auth_type", types.T_uint8, false),
)

func usersRows(ctx context.Context, tctx catalog.TableContext) ([][]types.DataValue, error) {
	list, err := tctx.GetUserManager().GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]types.DataValue, 0, len(list))
	for _, u := range list {
		password := types.NewNull(types.T_varchar)
		switch {
		case len(u.Password) == 0:
		case u.AuthType == users.AuthPlainText:
			password = types.NewString(string(u.Password))
		default:
			password = types.NewString(hex.EncodeToString(u.Password))
		}
		rows = append(rows, []types.DataValue{
			types.NewString(u.Name),
			types.NewString(u.Hostname),
			password,
			types.NewUInt8(uint8(u.AuthType)),
		})
	}
	return rows, nil
}

var databasesSchema = types.NewSchema(types.NewField("name", types.T_varchar, false))

func databasesRows(ctx context.Context, tctx catalog.TableContext) ([][]types.DataValue, error) {
	dbs, err := tctx.GetCatalog().GetDatabases(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]types.DataValue, 0, len(dbs))
	for _, db := range dbs {
		rows = append(rows, []types.DataValue{types.NewString(db.Name())})
	}
	return rows, nil
}

var tablesSchema = types.NewSchema(
	types.NewField("database", types.T_varchar, false),
	types.NewField("name", types.T_varchar, false),
	types.NewField("engine", types.T_varchar, false),
)

func tablesRows(ctx context.Context, tctx catalog.TableContext) ([][]types.DataValue, error) {
	dbs, err := tctx.GetCatalog().GetDatabases(ctx)
	if err != nil {
		return nil, err
	}
	var rows [][]types.DataValue
	for _, db := range dbs {
		tbls, err := db.GetTables(ctx)
		if err != nil {
			return nil, err
		}
		for _, tbl := range tbls {
			rows = append(rows, []types.DataValue{
				types.NewString(db.Name()),
				types.NewString(tbl.Name()),
				types.NewString(tbl.Engine()),
			})
		}
	}
	return rows, nil
}

var settingsSchema = types.NewSchema(
	types.NewField("name", types.T_varchar, false),
	types.NewField("value", types.T_varchar, false),
	types.NewField("default_value", types.T_varchar, false),
	types.NewField("description", types.T_varchar, false),
)

func settingsRows(_ context.Context, tctx catalog.TableContext) ([][]types.DataValue, error) {
	items := tctx.GetSettingItems()
	rows := make([][]types.DataValue, 0, len(items))
	for _, it := range items {
		rows = append(rows, []types.DataValue{
			types.NewString(it.Name),
			types.NewString(it.Value),
			types.NewString(it.Default),
			types.NewString(it.Desc),
		})
	}
	return rows, nil
}

var functionsSchema = types.NewSchema(
	types.NewField("name", types.T_varchar, false),
	types.NewField("is_aggregate", types.T_bool, false),
)

func functionsRows(context.Context, catalog.TableContext) ([][]types.DataValue, error) {
	infos := functions.Functions()
	rows := make([][]types.DataValue, 0, len(infos))
	for _, f := range infos {
		rows = append(rows, []types.DataValue{types.NewString(f.Name), types.NewBool(f.IsAggregate)})
	}
	return rows, nil
}

var enginesSchema = types.NewSchema(
	types.NewField("name", types.T_varchar, false),
	types.NewField("kind", types.T_varchar, false),
	types.NewField("description", types.T_varchar, false),
)

func enginesRows(_ context.Context, tctx catalog.TableContext) ([][]types.DataValue, error) {
	engines := tctx.GetCatalog().GetEngines()
	rows := make([][]types.DataValue, 0, len(engines))
	for _, e := range engines {
		rows = append(rows, []types.DataValue{
			types.NewString(e.Name),
			types.NewString(e.Kind),
			types.NewString(e.Description),
		})
	}
	return rows, nil
}
