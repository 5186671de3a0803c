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

package perfcounter

import (
	"context"

	"golang.org/x/exp/slices"
)

type counterSetsKey struct{}

// WithCounterSet attaches sets to ctx in addition to the sets already there.
// ctx is returned unchanged when every set is attached already.
func WithCounterSet(ctx context.Context, sets ...*CounterSet) context.Context {
	attached := fromContext(ctx)
	merged := attached
	for _, s := range sets {
		if s == nil {
			panic("nil counter set")
		}
		if !slices.Contains(merged, s) {
			if len(merged) == len(attached) {
				merged = slices.Clone(attached)
			}
			merged = append(merged, s)
		}
	}
	if len(merged) == len(attached) {
		return ctx
	}
	return context.WithValue(ctx, counterSetsKey{}, merged)
}

func fromContext(ctx context.Context) []*CounterSet {
	if ctx == nil {
		return nil
	}
	sets, _ := ctx.Value(counterSetsKey{}).([]*CounterSet)
	return sets
}

// Update applies fn to every counter set attached to ctx and to extras.
func Update(ctx context.Context, fn func(*CounterSet), extras ...*CounterSet) {
	for _, set := range fromContext(ctx) {
		fn(set)
	}
	for _, set := range extras {
		if set != nil {
			fn(set)
		}
	}
}
