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

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/vm/pipeline"
	"github.com/matrixorigin/fusequery/pkg/vm/processors"
)

type InsertInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.InsertPlan
}

func NewInsertInterpreter(qctx *sessions.QueryContext, p *plan.InsertPlan) *InsertInterpreter {
	return &InsertInterpreter{qctx: qctx, plan: p}
}

func (i *InsertInterpreter) Name() string          { return "InsertInterpreter" }
func (i *InsertInterpreter) Schema() *types.Schema { return i.plan.Schema() }

// Execute appends the rows of VALUES, of the sub-select, or of every
// input stream, and commits them together once all appends are done.
func (i *InsertInterpreter) Execute(ctx context.Context, inputs ...streams.Stream) (streams.Stream, error) {
	tbl, err := i.qctx.GetTable(ctx, i.plan.Database, i.plan.Table)
	if err != nil {
		return nil, err
	}
	switch {
	case i.plan.Values != nil:
		inputs = []streams.Stream{streams.NewOneBlockStream(i.plan.Values)}
	case i.plan.Select != nil:
		p, err := buildPipeline(ctx, i.qctx, i.plan.Select)
		if err != nil {
			return nil, err
		}
		s, err := p.Execute(ctx)
		if err != nil {
			return nil, err
		}
		inputs = []streams.Stream{s}
	case len(inputs) == 0:
		return nil, moerr.NewBadArguments(ctx, "INSERT into %s.%s has no rows to insert", i.plan.Database, i.plan.Table)
	}
	if err := appendStreams(ctx, i.qctx, tbl, inputs, false); err != nil {
		return nil, err
	}
	return finished(), nil
}

// appendStreams runs one sink per input and commits their append logs in
// input order.
func appendStreams(ctx context.Context, qctx *sessions.QueryContext, tbl catalog.Table, inputs []streams.Stream, overwrite bool) error {
	schema := tbl.Schema()
	p := pipeline.New(qctx)
	for _, input := range inputs {
		if err := p.AddSource(processors.NewStreamSource(streams.NewCastStream(input, schema))); err != nil {
			return err
		}
	}
	if err := p.AddSimpleTransform(func() (processors.Processor, error) {
		return processors.NewSinkTransform(qctx, tbl), nil
	}); err != nil {
		return err
	}
	if err := p.OrderedMerge(); err != nil {
		return err
	}
	if err := p.AddSimpleTransform(func() (processors.Processor, error) {
		return processors.NewCommitTransform(qctx, tbl, overwrite), nil
	}); err != nil {
		return err
	}
	s, err := p.Execute(ctx)
	if err != nil {
		return err
	}
	if _, err := streams.Collect(ctx, s); err != nil {
		return err
	}
	logutil.InfoCtx(ctx, "rows appended",
		zap.String("table", tbl.GetTableInfo().Desc),
		zap.Int("streams", len(inputs)))
	return nil
}
