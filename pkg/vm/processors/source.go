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

package processors

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// SourceTransform reads a table. Every SourceTransform of a query steals
// partitions from the same queue, so running several of them splits the
// read. Its stream stops with Aborted once the query is aborted.
type SourceTransform struct {
	source
	qctx QueryContext
	plan *plan.ReadDataSourcePlan
}

func NewSourceTransform(qctx QueryContext, p *plan.ReadDataSourcePlan) *SourceTransform {
	return &SourceTransform{qctx: qctx, plan: p}
}

func (p *SourceTransform) Name() string { return "SourceTransform" }

func (p *SourceTransform) Execute(ctx context.Context) (streams.Stream, error) {
	tbl, err := p.qctx.BuildTable(ctx, p.plan)
	if err != nil {
		return nil, err
	}
	s, err := tbl.Read(ctx, p.qctx, p.plan)
	if err != nil {
		return nil, err
	}
	s = p.qctx.TryCreateAbortable(s)
	s = streams.NewProgressStream(s, p.qctx.GetProgressCallback())
	counter := v2.PipelineBlockCounter(p.Name())
	return streams.NewProgressStream(s, func(int, int) { counter.Inc() }), nil
}

// StreamSource feeds a stream handed to the query, e.g. the rows of an
// INSERT coming from the client.
type StreamSource struct {
	source
	input streams.Stream
}

func NewStreamSource(input streams.Stream) *StreamSource {
	return &StreamSource{input: input}
}

func (p *StreamSource) Name() string { return "StreamSource" }

func (p *StreamSource) Execute(context.Context) (streams.Stream, error) {
	return p.input, nil
}

// EmptyProcessor produces no block.
type EmptyProcessor struct {
	source
	schema *types.Schema
}

func NewEmptyProcessor(schema *types.Schema) *EmptyProcessor {
	return &EmptyProcessor{schema: schema}
}

func (p *EmptyProcessor) Name() string { return "EmptyProcessor" }

func (p *EmptyProcessor) Execute(context.Context) (streams.Stream, error) {
	return streams.NewEmptyStream(p.schema), nil
}
