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

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

type CreateDatabaseInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.CreateDatabasePlan
}

func NewCreateDatabaseInterpreter(qctx *sessions.QueryContext, p *plan.CreateDatabasePlan) *CreateDatabaseInterpreter {
	return &CreateDatabaseInterpreter{qctx: qctx, plan: p}
}

func (i *CreateDatabaseInterpreter) Name() string          { return "CreateDatabaseInterpreter" }
func (i *CreateDatabaseInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *CreateDatabaseInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.GetCatalog().CreateDatabase(ctx, i.plan); err != nil {
		return nil, err
	}
	logutil.InfoCtx(ctx, "database created", zap.String("database", i.plan.Database), zap.String("engine", i.plan.Engine))
	return finished(), nil
}

type DropDatabaseInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.DropDatabasePlan
}

func NewDropDatabaseInterpreter(qctx *sessions.QueryContext, p *plan.DropDatabasePlan) *DropDatabaseInterpreter {
	return &DropDatabaseInterpreter{qctx: qctx, plan: p}
}

func (i *DropDatabaseInterpreter) Name() string          { return "DropDatabaseInterpreter" }
func (i *DropDatabaseInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *DropDatabaseInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.GetCatalog().DropDatabase(ctx, i.plan); err != nil {
		return nil, err
	}
	return finished(), nil
}

type CreateTableInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.CreateTablePlan
}

func NewCreateTableInterpreter(qctx *sessions.QueryContext, p *plan.CreateTablePlan) *CreateTableInterpreter {
	return &CreateTableInterpreter{qctx: qctx, plan: p}
}

func (i *CreateTableInterpreter) Name() string          { return "CreateTableInterpreter" }
func (i *CreateTableInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *CreateTableInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.GetCatalog().CreateTable(ctx, i.plan); err != nil {
		return nil, err
	}
	logutil.InfoCtx(ctx, "table created",
		zap.String("database", i.plan.Database),
		zap.String("table", i.plan.Table),
		zap.String("engine", i.plan.Engine))
	return finished(), nil
}

type DropTableInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.DropTablePlan
}

func NewDropTableInterpreter(qctx *sessions.QueryContext, p *plan.DropTablePlan) *DropTableInterpreter {
	return &DropTableInterpreter{qctx: qctx, plan: p}
}

func (i *DropTableInterpreter) Name() string          { return "DropTableInterpreter" }
func (i *DropTableInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *DropTableInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.GetCatalog().DropTable(ctx, i.plan); err != nil {
		return nil, err
	}
	return finished(), nil
}

type TruncateTableInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.TruncateTablePlan
}

func NewTruncateTableInterpreter(qctx *sessions.QueryContext, p *plan.TruncateTablePlan) *TruncateTableInterpreter {
	return &TruncateTableInterpreter{qctx: qctx, plan: p}
}

func (i *TruncateTableInterpreter) Name() string          { return "TruncateTableInterpreter" }
func (i *TruncateTableInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *TruncateTableInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	tbl, err := i.qctx.GetTable(ctx, i.plan.Database, i.plan.Table)
	if err != nil {
		return nil, err
	}
	if err := tbl.Truncate(ctx, i.qctx, i.plan.Purge); err != nil {
		return nil, err
	}
	return finished(), nil
}

type UseDatabaseInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.UseDatabasePlan
}

func NewUseDatabaseInterpreter(qctx *sessions.QueryContext, p *plan.UseDatabasePlan) *UseDatabaseInterpreter {
	return &UseDatabaseInterpreter{qctx: qctx, plan: p}
}

func (i *UseDatabaseInterpreter) Name() string          { return "UseDatabaseInterpreter" }
func (i *UseDatabaseInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *UseDatabaseInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	if err := i.qctx.SetCurrentDatabase(ctx, i.plan.Database); err != nil {
		return nil, err
	}
	return finished(), nil
}

type DescribeTableInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.DescribeTablePlan
}

func NewDescribeTableInterpreter(qctx *sessions.QueryContext, p *plan.DescribeTablePlan) *DescribeTableInterpreter {
	return &DescribeTableInterpreter{qctx: qctx, plan: p}
}

func (i *DescribeTableInterpreter) Name() string          { return "DescribeTableInterpreter" }
func (i *DescribeTableInterpreter) Schema() *types.Schema { return i.plan.Schema() }

// Execute outputs one (Field, Type, Null) row per column.
func (i *DescribeTableInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	tbl, err := i.qctx.GetTable(ctx, i.plan.Database, i.plan.Table)
	if err != nil {
		return nil, err
	}
	fields := tbl.Schema().Fields()
	rows := make([][]types.DataValue, len(fields))
	for j, f := range fields {
		null := "NO"
		if f.Nullable {
			null = "YES"
		}
		rows[j] = []types.DataValue{
			types.NewString(f.Name),
			types.NewString(f.Typ.String()),
			types.NewString(null),
		}
	}
	bat, err := batch.FromValues(i.Schema(), rows)
	if err != nil {
		return nil, err
	}
	return streams.NewOneBlockStream(bat), nil
}

type SettingInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.SetVariablePlan
}

func NewSettingInterpreter(qctx *sessions.QueryContext, p *plan.SetVariablePlan) *SettingInterpreter {
	return &SettingInterpreter{qctx: qctx, plan: p}
}

func (i *SettingInterpreter) Name() string          { return "SettingInterpreter" }
func (i *SettingInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *SettingInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	settings := i.qctx.GetSettings()
	for _, v := range i.plan.Vars {
		if err := settings.SetString(v.Variable, v.Value); err != nil {
			return nil, err
		}
	}
	return finished(), nil
}
