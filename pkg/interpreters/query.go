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

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/planner"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// Result is the collected output of one statement.
type Result struct {
	Schema *types.Schema
	Blocks []*batch.Batch
}

// RowCount sums the rows of every block.
func (r *Result) RowCount() int {
	n := 0
	for _, bat := range r.Blocks {
		n += bat.RowCount()
	}
	return n
}

// ExecuteQuery runs every statement of sql in order within s, each in its
// own query context. It stops at the first failing statement and returns
// the results collected so far together with the error.
func ExecuteQuery(ctx context.Context, s *sessions.Session, sql string) ([]*Result, error) {
	stmts, err := parsers.Parse(ctx, sql)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(stmts))
	for _, stmt := range stmts {
		r, err := executeStatement(ctx, s, stmt, sql)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func executeStatement(ctx context.Context, s *sessions.Session, stmt parsers.Statement, sql string) (*Result, error) {
	qctx := s.CreateQueryContext(ctx)
	defer qctx.Release()
	qctx.AttachQueryStr(sql)
	// carries the query id and counters, canceled with ctx
	ctx = qctx.Context()

	p, err := planner.BuildPlan(ctx, qctx, stmt)
	if err != nil {
		return nil, err
	}
	i, err := Get(qctx, p)
	if err != nil {
		return nil, err
	}
	out, err := i.Execute(ctx)
	if err != nil {
		return nil, err
	}
	bats, err := streams.Collect(ctx, out)
	if err != nil {
		return nil, err
	}
	return &Result{Schema: i.Schema(), Blocks: bats}, nil
}
