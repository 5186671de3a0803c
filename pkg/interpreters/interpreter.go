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
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// Interpreter executes one plan within a query. Inputs feed statements
// whose rows come from the client, INSERT without VALUES or SELECT.
type Interpreter interface {
	Name() string
	Schema() *types.Schema
	Execute(ctx context.Context, inputs ...streams.Stream) (streams.Stream, error)
}

// Get returns the interpreter of p.
func Get(qctx *sessions.QueryContext, p plan.Plan) (Interpreter, error) {
	var i Interpreter
	switch x := p.(type) {
	case *plan.SelectPlan:
		i = NewSelectInterpreter(qctx, x)
	case *plan.ExplainPlan:
		i = NewExplainInterpreter(qctx, x)
	case *plan.InsertPlan:
		i = NewInsertInterpreter(qctx, x)
	case *plan.CopyPlan:
		i = NewCopyInterpreter(qctx, x)
	case *plan.CreateDatabasePlan:
		i = NewCreateDatabaseInterpreter(qctx, x)
	case *plan.DropDatabasePlan:
		i = NewDropDatabaseInterpreter(qctx, x)
	case *plan.CreateTablePlan:
		i = NewCreateTableInterpreter(qctx, x)
	case *plan.DropTablePlan:
		i = NewDropTableInterpreter(qctx, x)
	case *plan.TruncateTablePlan:
		i = NewTruncateTableInterpreter(qctx, x)
	case *plan.UseDatabasePlan:
		i = NewUseDatabaseInterpreter(qctx, x)
	case *plan.DescribeTablePlan:
		i = NewDescribeTableInterpreter(qctx, x)
	case *plan.ShowTablesPlan:
		i = newShowInterpreter("ShowTablesInterpreter", qctx, x.Select)
	case *plan.ShowDatabasesPlan:
		i = newShowInterpreter("ShowDatabasesInterpreter", qctx, x.Select)
	case *plan.ShowSettingsPlan:
		i = newShowInterpreter("ShowSettingsInterpreter", qctx, x.Select)
	case *plan.SetVariablePlan:
		i = NewSettingInterpreter(qctx, x)
	case *plan.CreateUserPlan:
		i = NewCreateUserInterpreter(qctx, x)
	case *plan.AlterUserPlan:
		i = NewAlterUserInterpreter(qctx, x)
	case *plan.DropUserPlan:
		i = NewDropUserInterpreter(qctx, x)
	case *plan.GrantPrivilegePlan:
		i = NewGrantPrivilegeInterpreter(qctx, x)
	case *plan.RevokePrivilegePlan:
		i = NewRevokePrivilegeInterpreter(qctx, x)
	case *plan.ShowGrantsPlan:
		i = NewShowGrantsInterpreter(qctx, x)
	default:
		return nil, moerr.NewInternalError(qctx.Context(), "Can't get the interpreter by plan:%s", p.Name())
	}
	return &instrumented{Interpreter: i, qctx: qctx}, nil
}

// instrumented counts and logs every execution of the interpreter it wraps.
type instrumented struct {
	Interpreter
	qctx *sessions.QueryContext
}

func (i *instrumented) Execute(ctx context.Context, inputs ...streams.Stream) (streams.Stream, error) {
	start := time.Now()
	name := i.Interpreter.Name()
	v2.QueryCounter(name).Inc()
	s, err := i.Interpreter.Execute(ctx, inputs...)
	v2.QueryDurationHistogram.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		if moerr.IsAborted(err) {
			v2.QueryAbortedCounter.Inc()
		}
		logutil.ErrorCtx(ctx, "interpreter failed",
			zap.String("interpreter", name),
			zap.String("query", i.qctx.GetQueryStr()),
			zap.Error(err))
		return nil, err
	}
	logutil.DebugCtx(ctx, "interpreter executed", zap.String("interpreter", name), logutil.Elapsed(start))
	counted := false
	return streams.NewFuncStream(s.Schema(), func(ctx context.Context) (*batch.Batch, error) {
		bat, err := s.Next(ctx)
		if err != nil && moerr.IsAborted(err) && !counted {
			counted = true
			v2.QueryAbortedCounter.Inc()
		}
		return bat, err
	}), nil
}

// finished is the result of statements producing no rows.
func finished() streams.Stream {
	return streams.NewEmptyStream(plan.EmptySchema())
}
