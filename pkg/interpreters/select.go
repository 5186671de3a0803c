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
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/optimizer"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/vm/pipeline"
)

type SelectInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.SelectPlan
}

func NewSelectInterpreter(qctx *sessions.QueryContext, p *plan.SelectPlan) *SelectInterpreter {
	return &SelectInterpreter{qctx: qctx, plan: p}
}

func (i *SelectInterpreter) Name() string          { return "SelectInterpreter" }
func (i *SelectInterpreter) Schema() *types.Schema { return i.plan.Schema() }

func (i *SelectInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	p, err := buildPipeline(ctx, i.qctx, i.plan)
	if err != nil {
		return nil, err
	}
	s, err := p.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return i.qctx.TryCreateAbortable(s), nil
}

// buildPipeline optimizes p and schedules it on the local node.
func buildPipeline(ctx context.Context, qctx *sessions.QueryContext, p plan.Plan) (*pipeline.Pipeline, error) {
	optimized, err := optimizer.Optimize(ctx, p)
	if err != nil {
		return nil, err
	}
	return pipeline.NewBuilder(qctx, optimized).Build(ctx)
}

// showInterpreter runs the SELECT over system tables a SHOW statement
// was planned into.
type showInterpreter struct {
	*SelectInterpreter
	name string
}

func newShowInterpreter(name string, qctx *sessions.QueryContext, p *plan.SelectPlan) *showInterpreter {
	return &showInterpreter{SelectInterpreter: NewSelectInterpreter(qctx, p), name: name}
}

func (i *showInterpreter) Name() string { return i.name }

type ExplainInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.ExplainPlan
}

func NewExplainInterpreter(qctx *sessions.QueryContext, p *plan.ExplainPlan) *ExplainInterpreter {
	return &ExplainInterpreter{qctx: qctx, plan: p}
}

func (i *ExplainInterpreter) Name() string          { return "ExplainInterpreter" }
func (i *ExplainInterpreter) Schema() *types.Schema { return i.plan.Schema() }

// Execute outputs the optimized plan, or the pipeline built from it, one
// row per line.
func (i *ExplainInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	var text string
	switch i.plan.Kind {
	case plan.ExplainPipeline:
		p, err := buildPipeline(ctx, i.qctx, i.plan.Input)
		if err != nil {
			return nil, err
		}
		text = p.String()
	default:
		optimized, err := optimizer.Optimize(ctx, i.plan.Input)
		if err != nil {
			return nil, err
		}
		text = plan.Format(optimized)
	}
	lines := strings.Split(text, "\n")
	rows := make([][]types.DataValue, len(lines))
	for j, line := range lines {
		rows[j] = []types.DataValue{types.NewString(line)}
	}
	bat, err := batch.FromValues(i.Schema(), rows)
	if err != nil {
		return nil, err
	}
	return streams.NewOneBlockStream(bat), nil
}
