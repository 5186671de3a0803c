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

package functions

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	hll "github.com/axiomhq/hyperloglog"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// AggState is the running state of an aggregate over one group. Partial
// aggregation ships states between processors in their serialized form.
type AggState interface {
	// Accumulate folds one row, vals holding the argument values.
	Accumulate(vals []types.DataValue) error
	Merge(o AggState) error
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
	Result() types.DataValue
}

type AggregateFunction struct {
	Name    string
	MinArgs int
	MaxArgs int
	// the result over zero non null rows is null
	Nullable bool

	ReturnType func(args []types.T) (types.T, error)
	NewState   func(ret types.T) AggState
}

var aggregateFunctions = map[string]*AggregateFunction{}

func registerAggregate(fns ...*AggregateFunction) {
	for _, fn := range fns {
		aggregateFunctions[fn.Name] = fn
	}
}

func IsAggregate(name string) bool {
	_, ok := aggregateFunctions[strings.ToLower(name)]
	return ok
}

func GetAggregateFunction(ctx context.Context, name string) (*AggregateFunction, error) {
	if fn, ok := aggregateFunctions[strings.ToLower(name)]; ok {
		return fn, nil
	}
	return nil, moerr.NewUnknownFunction(ctx, name)
}

func (fn *AggregateFunction) ResolveReturnType(ctx context.Context, args []types.T) (types.T, bool, error) {
	if len(args) < fn.MinArgs || len(args) > fn.MaxArgs {
		return 0, false, moerr.NewBadArguments(ctx, "aggregate %s expects %d to %d arguments, got %d", fn.Name, fn.MinArgs, fn.MaxArgs, len(args))
	}
	typ, err := fn.ReturnType(args)
	if err != nil {
		return 0, false, err
	}
	return typ, fn.Nullable, nil
}

// NewAggState builds the state of fn, deduplicating input rows when
// distinct is set.
func NewAggState(fn *AggregateFunction, distinct bool, ret types.T) AggState {
	state := fn.NewState(ret)
	if distinct {
		return &distinctState{inner: state, seen: map[string][]types.DataValue{}}
	}
	return state
}

func init() {
	registerAggregate(
		&AggregateFunction{
			Name: "count", MinArgs: 0, MaxArgs: 1,
			ReturnType: fixedType(types.T_uint64),
			NewState:   func(types.T) AggState { return &countState{} },
		},
		&AggregateFunction{
			Name: "sum", MinArgs: 1, MaxArgs: 1, Nullable: true,
			ReturnType: func(args []types.T) (types.T, error) {
				if err := checkNumeric("sum", args); err != nil {
					return 0, err
				}
				return plusReturnType([]types.T{args[0], args[0]})
			},
			NewState: func(ret types.T) AggState { return &sumState{Typ: ret} },
		},
		&AggregateFunction{
			Name: "avg", MinArgs: 1, MaxArgs: 1, Nullable: true,
			ReturnType: func(args []types.T) (types.T, error) {
				if err := checkNumeric("avg", args); err != nil {
					return 0, err
				}
				return types.T_float64, nil
			},
			NewState: func(types.T) AggState { return &avgState{} },
		},
		&AggregateFunction{
			Name: "min", MinArgs: 1, MaxArgs: 1, Nullable: true,
			ReturnType: argType,
			NewState:   func(ret types.T) AggState { return &extremeState{Typ: ret, Max: false} },
		},
		&AggregateFunction{
			Name: "max", MinArgs: 1, MaxArgs: 1, Nullable: true,
			ReturnType: argType,
			NewState:   func(ret types.T) AggState { return &extremeState{Typ: ret, Max: true} },
		},
		&AggregateFunction{
			Name: "uniq", MinArgs: 1, MaxArgs: 1,
			ReturnType: fixedType(types.T_uint64),
			NewState:   func(types.T) AggState { return &uniqState{sk: hll.New()} },
		},
	)
}

func argType(args []types.T) (types.T, error) {
	return args[0], nil
}

type countState struct {
	N uint64 `json:"n"`
}

func (s *countState) Accumulate(vals []types.DataValue) error {
	// count(*) has no argument
	if len(vals) == 0 || !vals[0].IsNull() {
		s.N++
	}
	return nil
}

func (s *countState) Merge(o AggState) error {
	s.N += o.(*countState).N
	return nil
}

func (s *countState) Serialize() ([]byte, error)    { return json.Marshal(s) }
func (s *countState) Deserialize(data []byte) error { return json.Unmarshal(data, s) }
func (s *countState) Result() types.DataValue       { return types.NewUInt64(s.N) }

type sumState struct {
	Typ   types.T `json:"typ"`
	Valid bool    `json:"valid"`
	I     int64   `json:"i"`
	U     uint64  `json:"u"`
	F     float64 `json:"f"`
}

func (s *sumState) Accumulate(vals []types.DataValue) error {
	v := vals[0]
	if v.IsNull() {
		return nil
	}
	s.Valid = true
	switch {
	case s.Typ.IsFloat():
		s.F += v.AsFloat64()
	case s.Typ.IsUnsignedInt():
		s.U += v.Uint64()
	default:
		c, err := types.Cast(v, types.T_int64)
		if err != nil {
			return err
		}
		s.I += c.Int64()
	}
	return nil
}

func (s *sumState) Merge(o AggState) error {
	other := o.(*sumState)
	if !other.Valid {
		return nil
	}
	s.Valid = true
	s.I += other.I
	s.U += other.U
	s.F += other.F
	return nil
}

func (s *sumState) Serialize() ([]byte, error)    { return json.Marshal(s) }
func (s *sumState) Deserialize(data []byte) error { return json.Unmarshal(data, s) }

func (s *sumState) Result() types.DataValue {
	switch {
	case !s.Valid:
		return types.NewNull(s.Typ)
	case s.Typ.IsFloat():
		return types.NewFloat64(s.F)
	case s.Typ.IsUnsignedInt():
		return types.NewUInt64(s.U)
	}
	return types.NewInt64(s.I)
}

type avgState struct {
	Sum   float64 `json:"sum"`
	Count uint64  `json:"count"`
}

func (s *avgState) Accumulate(vals []types.DataValue) error {
	if !vals[0].IsNull() {
		s.Sum += vals[0].AsFloat64()
		s.Count++
	}
	return nil
}

func (s *avgState) Merge(o AggState) error {
	other := o.(*avgState)
	s.Sum += other.Sum
	s.Count += other.Count
	return nil
}

func (s *avgState) Serialize() ([]byte, error)    { return json.Marshal(s) }
func (s *avgState) Deserialize(data []byte) error { return json.Unmarshal(data, s) }

func (s *avgState) Result() types.DataValue {
	if s.Count == 0 {
		return types.NewNull(types.T_float64)
	}
	return types.NewFloat64(s.Sum / float64(s.Count))
}

// extremeState keeps the smallest, or with Max the largest, value.
type extremeState struct {
	Typ   types.T          `json:"typ"`
	Max   bool             `json:"max"`
	Value *types.DataValue `json:"value,omitempty"`
}

func (s *extremeState) Accumulate(vals []types.DataValue) error {
	v := vals[0]
	if v.IsNull() {
		return nil
	}
	if s.Value == nil {
		s.Value = &v
		return nil
	}
	c, err := types.Compare(v, *s.Value)
	if err != nil {
		return err
	}
	if (s.Max && c > 0) || (!s.Max && c < 0) {
		s.Value = &v
	}
	return nil
}

func (s *extremeState) Merge(o AggState) error {
	other := o.(*extremeState)
	if other.Value == nil {
		return nil
	}
	return s.Accumulate([]types.DataValue{*other.Value})
}

func (s *extremeState) Serialize() ([]byte, error)    { return json.Marshal(s) }
func (s *extremeState) Deserialize(data []byte) error { return json.Unmarshal(data, s) }

func (s *extremeState) Result() types.DataValue {
	if s.Value == nil {
		return types.NewNull(s.Typ)
	}
	return *s.Value
}

// uniqState estimates the number of distinct non null values.
type uniqState struct {
	sk *hll.Sketch
}

func (s *uniqState) Accumulate(vals []types.DataValue) error {
	if !vals[0].IsNull() {
		s.sk.Insert([]byte(vals[0].String()))
	}
	return nil
}

func (s *uniqState) Merge(o AggState) error {
	return s.sk.Merge(o.(*uniqState).sk)
}

func (s *uniqState) Serialize() ([]byte, error)    { return s.sk.MarshalBinary() }
func (s *uniqState) Deserialize(data []byte) error { return s.sk.UnmarshalBinary(data) }
func (s *uniqState) Result() types.DataValue       { return types.NewUInt64(s.sk.Estimate()) }

// distinctState collects the distinct argument tuples and feeds them to
// the inner state when the result is asked for.
type distinctState struct {
	inner AggState
	seen  map[string][]types.DataValue
}

func distinctKey(vals []types.DataValue) (string, error) {
	data, err := json.Marshal(vals)
	return string(data), err
}

func (s *distinctState) Accumulate(vals []types.DataValue) error {
	for _, v := range vals {
		// null tuples never count
		if v.IsNull() {
			return nil
		}
	}
	key, err := distinctKey(vals)
	if err != nil {
		return err
	}
	if _, ok := s.seen[key]; !ok {
		s.seen[key] = append([]types.DataValue(nil), vals...)
	}
	return nil
}

func (s *distinctState) Merge(o AggState) error {
	for k, vals := range o.(*distinctState).seen {
		if _, ok := s.seen[k]; !ok {
			s.seen[k] = vals
		}
	}
	return nil
}

func (s *distinctState) Serialize() ([]byte, error) {
	keys := make([]string, 0, len(s.seen))
	for k := range s.seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]types.DataValue, len(keys))
	for i, k := range keys {
		rows[i] = s.seen[k]
	}
	return json.Marshal(rows)
}

func (s *distinctState) Deserialize(data []byte) error {
	var rows [][]types.DataValue
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	for _, vals := range rows {
		if err := s.Accumulate(vals); err != nil {
			return err
		}
	}
	return nil
}

func (s *distinctState) Result() types.DataValue {
	for _, vals := range s.seen {
		if err := s.inner.Accumulate(vals); err != nil {
			return types.NewNull(types.T_null)
		}
	}
	s.seen = map[string][]types.DataValue{}
	return s.inner.Result()
}

// BindAggregate resolves name over args into a typed aggregate call.
func BindAggregate(ctx context.Context, name string, distinct bool, args ...plan.Expr) (*plan.AggregateFunction, error) {
	fn, err := GetAggregateFunction(ctx, name)
	if err != nil {
		return nil, err
	}
	argTypes := make([]types.T, len(args))
	for i, a := range args {
		argTypes[i] = a.ReturnType()
	}
	typ, null, err := fn.ResolveReturnType(ctx, argTypes)
	if err != nil {
		return nil, err
	}
	return &plan.AggregateFunction{Name: fn.Name, Args: args, Distinct: distinct, Typ: typ, Null: null}, nil
}
