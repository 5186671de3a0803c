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
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

type group struct {
	keys   []types.DataValue
	states []functions.AggState
}

// groupTable maps group keys to their states. Keys are hashed with
// xxhash; colliding groups are told apart by value.
type groupTable struct {
	aggs   []*plan.AggregateFunction
	fns    []*functions.AggregateFunction
	index  map[uint64][]*group
	groups []*group
}

func newGroupTable(ctx context.Context, aggs []*plan.AggregateFunction) (*groupTable, error) {
	fns := make([]*functions.AggregateFunction, len(aggs))
	for i, a := range aggs {
		fn, err := functions.GetAggregateFunction(ctx, a.Name)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return &groupTable{aggs: aggs, fns: fns, index: make(map[uint64][]*group)}, nil
}

func (t *groupTable) newStates() []functions.AggState {
	states := make([]functions.AggState, len(t.aggs))
	for i, a := range t.aggs {
		states[i] = functions.NewAggState(t.fns[i], a.Distinct, a.Typ)
	}
	return states
}

func (t *groupTable) get(keys []types.DataValue) *group {
	h := hashKeys(keys)
	for _, g := range t.index[h] {
		if equalKeys(g.keys, keys) {
			return g
		}
	}
	g := &group{keys: keys, states: t.newStates()}
	t.index[h] = append(t.index[h], g)
	t.groups = append(t.groups, g)
	return g
}

func hashKeys(keys []types.DataValue) uint64 {
	d := xxhash.New()
	for _, k := range keys {
		if k.IsNull() {
			_, _ = d.WriteString("\x00N")
			continue
		}
		_, _ = d.WriteString("\x01" + strconv.Itoa(int(k.DataType())) + ":" + k.String())
	}
	return d.Sum64()
}

func equalKeys(a, b []types.DataValue) bool {
	for i := range a {
		if a[i].IsNull() != b[i].IsNull() {
			return false
		}
		if !a[i].IsNull() && !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// AggregatorPartialTransform folds its input into one serialized state
// per group and aggregate.
type AggregatorPartialTransform struct {
	transform
	groupBy []plan.Expr
	aggs    []*plan.AggregateFunction
	schema  *types.Schema
}

func NewAggregatorPartialTransform(p *plan.AggregatorPartialPlan) *AggregatorPartialTransform {
	return &AggregatorPartialTransform{groupBy: p.GroupBy, aggs: p.Aggs, schema: p.Schema()}
}

func (p *AggregatorPartialTransform) Name() string { return "AggregatorPartialTransform" }

func (p *AggregatorPartialTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	table, err := newGroupTable(ctx, p.aggs)
	if err != nil {
		return nil, err
	}
	done := false
	return streams.NewFuncStream(p.schema, func(ctx context.Context) (*batch.Batch, error) {
		if done {
			return nil, nil
		}
		done = true
		for {
			bat, err := input.Next(ctx)
			if err != nil {
				return nil, err
			}
			if bat == nil {
				break
			}
			if err := p.accumulate(ctx, table, bat); err != nil {
				return nil, err
			}
		}
		// a global aggregate has one row even over no input
		if len(p.groupBy) == 0 && len(table.groups) == 0 {
			table.get(nil)
		}
		if len(table.groups) == 0 {
			return nil, nil
		}
		rows := make([][]types.DataValue, len(table.groups))
		for i, g := range table.groups {
			row := append([]types.DataValue{}, g.keys...)
			for _, s := range g.states {
				data, err := s.Serialize()
				if err != nil {
					return nil, err
				}
				row = append(row, types.NewString(string(data)))
			}
			rows[i] = row
		}
		return batch.FromValues(p.schema, rows)
	}), nil
}

func (p *AggregatorPartialTransform) accumulate(ctx context.Context, table *groupTable, bat *batch.Batch) error {
	keyVecs, err := evalAll(ctx, p.groupBy, bat)
	if err != nil {
		return err
	}
	argVecs := make([][]*vector.Vector, len(p.aggs))
	for i, a := range p.aggs {
		if argVecs[i], err = evalAll(ctx, a.Args, bat); err != nil {
			return err
		}
	}
	for r := 0; r < bat.RowCount(); r++ {
		keys := make([]types.DataValue, len(keyVecs))
		for i, v := range keyVecs {
			keys[i] = v.Get(r)
		}
		g := table.get(keys)
		for i, s := range g.states {
			vals := make([]types.DataValue, len(argVecs[i]))
			for j, v := range argVecs[i] {
				vals[j] = v.Get(r)
			}
			if err := s.Accumulate(vals); err != nil {
				return err
			}
		}
	}
	return nil
}

// AggregatorFinalTransform merges the partial states of every group and
// outputs the aggregate results followed by the group keys.
type AggregatorFinalTransform struct {
	transform
	groupBy []plan.Expr
	aggs    []*plan.AggregateFunction
	schema  *types.Schema
}

func NewAggregatorFinalTransform(p *plan.AggregatorFinalPlan) *AggregatorFinalTransform {
	return &AggregatorFinalTransform{groupBy: p.GroupBy, aggs: p.Aggs, schema: p.Schema()}
}

func (p *AggregatorFinalTransform) Name() string { return "AggregatorFinalTransform" }

func (p *AggregatorFinalTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	table, err := newGroupTable(ctx, p.aggs)
	if err != nil {
		return nil, err
	}
	nkeys := len(p.groupBy)
	done := false
	return streams.NewFuncStream(p.schema, func(ctx context.Context) (*batch.Batch, error) {
		if done {
			return nil, nil
		}
		done = true
		for {
			bat, err := input.Next(ctx)
			if err != nil {
				return nil, err
			}
			if bat == nil {
				break
			}
			for r := 0; r < bat.RowCount(); r++ {
				row := bat.Row(r)
				g := table.get(row[:nkeys])
				for i, s := range g.states {
					partial := table.newStates()[i]
					if err := partial.Deserialize([]byte(row[nkeys+i].Str())); err != nil {
						return nil, err
					}
					if err := s.Merge(partial); err != nil {
						return nil, err
					}
				}
			}
		}
		if nkeys == 0 && len(table.groups) == 0 {
			table.get(nil)
		}
		if len(table.groups) == 0 {
			return nil, nil
		}
		rows := make([][]types.DataValue, len(table.groups))
		for i, g := range table.groups {
			row := make([]types.DataValue, 0, len(p.aggs)+nkeys)
			for j, s := range g.states {
				v, err := types.Cast(s.Result(), p.aggs[j].Typ)
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
			rows[i] = append(row, g.keys...)
		}
		return batch.FromValues(p.schema, rows)
	}), nil
}

func evalAll(ctx context.Context, exprs []plan.Expr, bat *batch.Batch) ([]*vector.Vector, error) {
	vecs := make([]*vector.Vector, len(exprs))
	for i, e := range exprs {
		vec, err := functions.Eval(ctx, e, bat)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}
