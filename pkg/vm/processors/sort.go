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

	"golang.org/x/exp/slices"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// SortTransform sorts all of its input into one block. The pipeline runs
// a partial sort on every way and a merge sort after merging the ways.
type SortTransform struct {
	transform
	name  string
	items []plan.SortItem
}

func NewSortPartialTransform(items []plan.SortItem) *SortTransform {
	return &SortTransform{name: "SortPartialTransform", items: items}
}

func NewSortMergeTransform(items []plan.SortItem) *SortTransform {
	return &SortTransform{name: "SortMergeTransform", items: items}
}

func (p *SortTransform) Name() string { return p.name }

func (p *SortTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	done := false
	return streams.NewFuncStream(input.Schema(), func(ctx context.Context) (*batch.Batch, error) {
		if done {
			return nil, nil
		}
		done = true
		bats, err := streams.Collect(ctx, input)
		if err != nil {
			return nil, err
		}
		if len(bats) == 0 {
			return nil, nil
		}
		bat, err := batch.Concat(input.Schema(), bats...)
		if err != nil || bat.IsEmpty() {
			return nil, err
		}
		return sortBlock(ctx, bat, p.items)
	}), nil
}

func sortBlock(ctx context.Context, bat *batch.Batch, items []plan.SortItem) (*batch.Batch, error) {
	keys := make([]*vector.Vector, len(items))
	for i, it := range items {
		vec, err := evalAll(ctx, []plan.Expr{it.Expr}, bat)
		if err != nil {
			return nil, err
		}
		keys[i] = vec[0]
	}
	sels := make([]int64, bat.RowCount())
	for i := range sels {
		sels[i] = int64(i)
	}
	var cmpErr error
	slices.SortStableFunc(sels, func(a, b int64) int {
		for i, it := range items {
			c, err := compareSortKeys(keys[i].Get(int(a)), keys[i].Get(int(b)), it)
			if err != nil && cmpErr == nil {
				cmpErr = err
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	return bat.Shuffle(sels), nil
}

// compareSortKeys orders a before b when negative. Nulls go first or
// last regardless of the direction.
func compareSortKeys(a, b types.DataValue, it plan.SortItem) (int, error) {
	switch an, bn := a.IsNull(), b.IsNull(); {
	case an && bn:
		return 0, nil
	case an:
		if it.NullsFirst {
			return -1, nil
		}
		return 1, nil
	case bn:
		if it.NullsFirst {
			return 1, nil
		}
		return -1, nil
	}
	c, err := types.Compare(a, b)
	if !it.Asc {
		c = -c
	}
	return c, err
}
