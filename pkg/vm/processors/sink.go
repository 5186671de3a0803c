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
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// SinkTransform appends its input to a table and outputs the append log
// entries. Nothing is visible until CommitTransform commits them.
type SinkTransform struct {
	transform
	qctx  QueryContext
	table catalog.Table
}

func NewSinkTransform(qctx QueryContext, table catalog.Table) *SinkTransform {
	return &SinkTransform{qctx: qctx, table: table}
}

func (p *SinkTransform) Name() string { return "SinkTransform" }

func (p *SinkTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	return p.table.AppendData(ctx, p.qctx, input)
}

// CommitTransform commits every append log entry of its input at once
// and produces no block.
type CommitTransform struct {
	transform
	qctx      QueryContext
	table     catalog.Table
	overwrite bool
}

func NewCommitTransform(qctx QueryContext, table catalog.Table, overwrite bool) *CommitTransform {
	return &CommitTransform{qctx: qctx, table: table, overwrite: overwrite}
}

func (p *CommitTransform) Name() string { return "CommitTransform" }

func (p *CommitTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	done := false
	return streams.NewFuncStream(plan.EmptySchema(), func(ctx context.Context) (*batch.Batch, error) {
		if done {
			return nil, nil
		}
		done = true
		logs, err := streams.Collect(ctx, input)
		if err != nil {
			return nil, err
		}
		return nil, p.table.Commit(ctx, p.qctx, logs, p.overwrite)
	}), nil
}
