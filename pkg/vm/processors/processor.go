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

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// QueryContext is what processors see of the running query.
// *sessions.QueryContext implements it.
type QueryContext interface {
	catalog.TableContext
	Context() context.Context
	BuildTable(ctx context.Context, source *plan.ReadDataSourcePlan) (catalog.Table, error)
	TryCreateAbortable(input streams.Stream) streams.Stream
	TrySetStatistics(stats plan.Statistics)
}

// Processor is a node of the pipeline DAG. Execute is called once and
// returns the output stream, pulling from the inputs lazily.
type Processor interface {
	Name() string
	ConnectTo(input Processor) error
	Inputs() []Processor
	Execute(ctx context.Context) (streams.Stream, error)
}

// transform is the base of the processors with exactly one input.
type transform struct {
	input Processor
}

func (t *transform) ConnectTo(input Processor) error {
	if t.input != nil {
		return moerr.NewInternalErrorNoCtx("processor already has an input")
	}
	t.input = input
	return nil
}

func (t *transform) Inputs() []Processor {
	if t.input == nil {
		return nil
	}
	return []Processor{t.input}
}

func (t *transform) executeInput(ctx context.Context) (streams.Stream, error) {
	if t.input == nil {
		return nil, moerr.NewInternalError(ctx, "processor has no input")
	}
	return t.input.Execute(ctx)
}

// source is the base of the processors without input.
type source struct{}

func (source) ConnectTo(Processor) error {
	return moerr.NewInternalErrorNoCtx("source processor cannot have an input")
}

func (source) Inputs() []Processor { return nil }

// mapBlocks applies fn to every non empty block of input and counts the
// blocks produced under name.
func mapBlocks(name string, input streams.Stream, schema *types.Schema, fn func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error)) streams.Stream {
	counter := v2.PipelineBlockCounter(name)
	return streams.NewFuncStream(schema, func(ctx context.Context) (*batch.Batch, error) {
		for {
			bat, err := input.Next(ctx)
			if err != nil || bat == nil {
				return nil, err
			}
			out, err := fn(ctx, bat)
			if err != nil {
				return nil, err
			}
			if out != nil && !out.IsEmpty() {
				counter.Inc()
				return out, nil
			}
		}
	})
}
