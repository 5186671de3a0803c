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

package fuse

import (
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

// prune turns the blocks of segments into partitions, skipping blocks
// whose statistics prove a pushed filter false.
func (t *Table) prune(segments []*meta.SegmentInfo, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	stats := plan.Statistics{IsExact: true}
	var parts []plan.Partition
	limited := push.Limit > 0 && len(push.Filters) == 0
	for _, seg := range segments {
		for _, blk := range seg.Blocks {
			stats.PartitionsTotal++
			if limited && stats.ReadRows >= uint64(push.Limit) {
				continue
			}
			if t.blockPruned(blk, push.Filters) {
				v2.FusePrunedBlockCounter.Inc()
				continue
			}
			parts = append(parts, plan.Partition{
				Name:     blk.Location,
				Version:  t.Info.Version,
				Begin:    0,
				End:      blk.RowCount,
				ByteSize: blk.ByteSize,
			})
			stats.PartitionsScanned++
			stats.ReadRows += blk.RowCount
			stats.ReadBytes += blk.ByteSize
		}
	}
	return stats, parts, nil
}

func (t *Table) blockPruned(blk meta.BlockMeta, filters []plan.Expr) bool {
	for _, f := range filters {
		if neverTrue(f, t.Schema(), blk) {
			return true
		}
	}
	return false
}

var flipped = map[string]string{
	"=": "=", "<>": "<>", "<": ">", "<=": ">=", ">": "<", ">=": "<=",
}

// neverTrue reports whether the min/max of blk prove e false or null
// for every row. Unknown shapes never prune.
func neverTrue(e plan.Expr, schema *types.Schema, blk meta.BlockMeta) bool {
	fn, ok := e.(*plan.ScalarFunction)
	if !ok {
		return false
	}
	switch fn.Name {
	case "and":
		return neverTrue(fn.Args[0], schema, blk) || neverTrue(fn.Args[1], schema, blk)
	case "or":
		return neverTrue(fn.Args[0], schema, blk) && neverTrue(fn.Args[1], schema, blk)
	case "is null", "is not null":
		st, ok := columnStats(fn.Args[0], schema, blk)
		if !ok {
			return false
		}
		if fn.Name == "is null" {
			return st.NullCount == 0
		}
		return st.NullCount == blk.RowCount
	}
	if _, ok := flipped[fn.Name]; !ok || len(fn.Args) != 2 {
		return false
	}

	op := fn.Name
	colExpr, litExpr := fn.Args[0], fn.Args[1]
	if _, isLit := colExpr.(*plan.Literal); isLit {
		colExpr, litExpr = litExpr, colExpr
		op = flipped[op]
	}
	lit, ok := litExpr.(*plan.Literal)
	if !ok {
		return false
	}
	st, ok := columnStats(colExpr, schema, blk)
	if !ok {
		return false
	}
	if lit.Value.IsNull() || st.NullCount == blk.RowCount {
		// comparisons with null are never true
		return true
	}
	if st.Min.IsNull() || st.Max.IsNull() {
		return false
	}
	cmpMin, err1 := types.Compare(lit.Value, st.Min)
	cmpMax, err2 := types.Compare(lit.Value, st.Max)
	if err1 != nil || err2 != nil {
		return false
	}
	switch op {
	case "=":
		return cmpMin < 0 || cmpMax > 0
	case "<>":
		return cmpMin == 0 && cmpMax == 0
	case "<":
		// col < v
		return cmpMin <= 0
	case "<=":
		return cmpMin < 0
	case ">":
		return cmpMax >= 0
	case ">=":
		return cmpMax > 0
	}
	return false
}

func columnStats(e plan.Expr, schema *types.Schema, blk meta.BlockMeta) (meta.ColStats, bool) {
	if a, ok := e.(*plan.Alias); ok {
		e = a.E
	}
	col, ok := e.(*plan.ColumnRef)
	if !ok {
		return meta.ColStats{}, false
	}
	idx := schema.IndexOf(col.Name)
	if idx < 0 {
		return meta.ColStats{}, false
	}
	st, ok := blk.ColStats[meta.ColumnID(idx)]
	return st, ok
}
