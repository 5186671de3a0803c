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

// Package nulls marks the NULL rows of a column.
package nulls

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// Nulls is a set of row numbers. The zero value is empty and the bitmap is
// only allocated on the first Set.
type Nulls struct {
	bm *roaring.Bitmap
}

func New() *Nulls {
	return &Nulls{}
}

func Build(rows ...uint64) *Nulls {
	n := New()
	n.Set(rows...)
	return n
}

func (n *Nulls) Set(rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	if n.bm == nil {
		n.bm = roaring.New()
	}
	for _, r := range rows {
		n.bm.Add(uint32(r))
	}
}

// SetRange marks [start, end).
func (n *Nulls) SetRange(start, end uint64) {
	if start >= end {
		return
	}
	if n.bm == nil {
		n.bm = roaring.New()
	}
	n.bm.AddRange(start, end)
}

func (n *Nulls) Any() bool {
	return n != nil && n.bm != nil && !n.bm.IsEmpty()
}

func (n *Nulls) Count() int {
	if !n.Any() {
		return 0
	}
	return int(n.bm.GetCardinality())
}

func (n *Nulls) Contains(row uint64) bool {
	return n.Any() && n.bm.Contains(uint32(row))
}

// Range returns the rows in [start, end) renumbered from 0.
func (n *Nulls) Range(start, end uint64) *Nulls {
	out := New()
	if !n.Any() {
		return out
	}
	it := n.bm.Iterator()
	it.AdvanceIfNeeded(uint32(start))
	for it.HasNext() {
		r := uint64(it.Next())
		if r >= end {
			break
		}
		out.Set(r - start)
	}
	return out
}

// Filter keeps the rows picked by sels, renumbered by their position in sels.
func (n *Nulls) Filter(sels []int64) *Nulls {
	out := New()
	if !n.Any() {
		return out
	}
	for i, sel := range sels {
		if n.bm.Contains(uint32(sel)) {
			out.Set(uint64(i))
		}
	}
	return out
}

func (n *Nulls) Union(other *Nulls) *Nulls {
	out := n.Clone()
	if out == nil {
		out = New()
	}
	if other.Any() {
		if out.bm == nil {
			out.bm = roaring.New()
		}
		out.bm.Or(other.bm)
	}
	return out
}

func (n *Nulls) Clone() *Nulls {
	if n == nil {
		return nil
	}
	if n.bm == nil {
		return New()
	}
	return &Nulls{bm: n.bm.Clone()}
}

func (n *Nulls) ToArray() []uint64 {
	if !n.Any() {
		return nil
	}
	rows := n.bm.ToArray()
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = uint64(r)
	}
	return out
}

func (n *Nulls) String() string {
	return fmt.Sprintf("%v", n.ToArray())
}
