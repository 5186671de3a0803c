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

package pipeline

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/vm/processors"
)

// Builder turns a SELECT plan tree into a pipeline. Every plan runs on
// the local node.
type Builder struct {
	qctx processors.QueryContext
	plan plan.Plan
}

func NewBuilder(qctx processors.QueryContext, p plan.Plan) *Builder {
	return &Builder{qctx: qctx, plan: p}
}

func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	pipeline := New(b.qctx)
	if err := b.visit(ctx, pipeline, b.plan); err != nil {
		return nil, err
	}
	logutil.DebugCtx(ctx, "pipeline built",
		zap.Int("pipes", len(pipeline.pipes)),
		zap.Int("ways", pipeline.NumWays()))
	return pipeline, nil
}

func (b *Builder) visit(ctx context.Context, pipeline *Pipeline, p plan.Plan) error {
	if source, ok := p.(*plan.ReadDataSourcePlan); ok {
		return b.visitSource(ctx, pipeline, source)
	}
	u, ok := p.(plan.UnaryPlan)
	if !ok {
		return moerr.NewNYI(ctx, "cannot build pipeline for %s", p.Name())
	}
	if err := b.visit(ctx, pipeline, u.Child()); err != nil {
		return err
	}
	switch x := p.(type) {
	case *plan.SelectPlan:
		return nil
	case *plan.FilterPlan:
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewFilterTransform(x.Predicate), nil
		})
	case *plan.ExpressionPlan:
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewExpressionTransform(x.Exprs), nil
		})
	case *plan.ProjectionPlan:
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewProjectionTransform(x.Exprs), nil
		})
	case *plan.AggregatorPartialPlan:
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewAggregatorPartialTransform(x), nil
		})
	case *plan.AggregatorFinalPlan:
		if err := pipeline.Merge(); err != nil {
			return err
		}
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewAggregatorFinalTransform(x), nil
		})
	case *plan.SortPlan:
		if err := pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewSortPartialTransform(x.Items), nil
		}); err != nil {
			return err
		}
		if err := pipeline.Merge(); err != nil {
			return err
		}
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewSortMergeTransform(x.Items), nil
		})
	case *plan.LimitPlan:
		if err := pipeline.Merge(); err != nil {
			return err
		}
		return pipeline.AddSimpleTransform(func() (processors.Processor, error) {
			return processors.NewLimitTransform(x.Limit, x.Offset), nil
		})
	}
	return moerr.NewNYI(ctx, "cannot build pipeline for %s", p.Name())
}

// visitSource plans the partitions of the read, queues them on the
// query and adds one source per way. Sources steal from the shared
// queue, so ways never exceed the partitions.
func (b *Builder) visitSource(ctx context.Context, pipeline *Pipeline, source *plan.ReadDataSourcePlan) error {
	tbl, err := b.qctx.BuildTable(ctx, source)
	if err != nil {
		return err
	}
	stats, parts, err := tbl.ReadPartitions(ctx, b.qctx, source.PushDowns)
	if err != nil {
		return err
	}
	read := *source
	read.Statistics = stats
	read.Parts = parts
	// the queue pops from the back, reversed parts are stolen in plan order
	b.qctx.TrySetPartitions(lo.Reverse(append([]plan.Partition(nil), parts...)))
	b.qctx.TrySetStatistics(stats)

	if len(parts) == 0 {
		return pipeline.AddSource(processors.NewEmptyProcessor(read.Schema()))
	}
	ways := min(b.qctx.GetMaxThreads(), len(parts))
	for i := 0; i < ways; i++ {
		if err := pipeline.AddSource(processors.NewSourceTransform(b.qctx, &read)); err != nil {
			return err
		}
	}
	return nil
}
