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

package meta

import (
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

// ColumnID is the position of the column in the table schema.
type ColumnID = uint32

// ColStats is the per column statistics of a block, or of a group of blocks
// once reduced. Min and Max are null when every value is null.
type ColStats struct {
	Min          types.DataValue `json:"min"`
	Max          types.DataValue `json:"max"`
	NullCount    uint64          `json:"null_count"`
	InMemorySize uint64          `json:"in_memory_size"`
}

// Statistics is the summary of a segment or a snapshot.
type Statistics struct {
	RowCount   uint64                `json:"row_count"`
	BlockCount uint64                `json:"block_count"`
	ByteSize   uint64                `json:"byte_size"`
	ColStats   map[ColumnID]ColStats `json:"col_stats"`
}

// ColumnStatistics computes the stats of every column of bat.
func ColumnStatistics(bat *batch.Batch) (map[ColumnID]ColStats, error) {
	stats := make(map[ColumnID]ColStats, bat.ColumnCount())
	for i, vec := range bat.Vecs() {
		st, err := columnStats(vec)
		if err != nil {
			return nil, err
		}
		stats[ColumnID(i)] = st
	}
	return stats, nil
}

func columnStats(vec *vector.Vector) (ColStats, error) {
	typ := vec.GetType()
	st := ColStats{
		Min:          types.NewNull(typ),
		Max:          types.NewNull(typ),
		NullCount:    uint64(vec.NullCount()),
		InMemorySize: uint64(vec.Size()),
	}
	rows := vec.Length()
	if vec.IsConst() && rows > 0 {
		// every row holds the same value
		rows = 1
	}
	for i := 0; i < rows; i++ {
		v := vec.Get(i)
		if v.IsNull() {
			continue
		}
		if st.Min.IsNull() {
			st.Min, st.Max = v, v
			continue
		}
		c, err := types.Compare(v, st.Min)
		if err != nil {
			return st, err
		}
		if c < 0 {
			st.Min = v
		}
		if c, err = types.Compare(v, st.Max); err != nil {
			return st, err
		}
		if c > 0 {
			st.Max = v
		}
	}
	return st, nil
}

// MergeColStats folds the stats of the same column of two block groups.
func MergeColStats(a, b ColStats) (ColStats, error) {
	out := ColStats{
		Min:          a.Min,
		Max:          a.Max,
		NullCount:    a.NullCount + b.NullCount,
		InMemorySize: a.InMemorySize + b.InMemorySize,
	}
	if out.Min.IsNull() {
		out.Min = b.Min
	} else if !b.Min.IsNull() {
		c, err := types.Compare(b.Min, out.Min)
		if err != nil {
			return out, err
		}
		if c < 0 {
			out.Min = b.Min
		}
	}
	if out.Max.IsNull() {
		out.Max = b.Max
	} else if !b.Max.IsNull() {
		c, err := types.Compare(b.Max, out.Max)
		if err != nil {
			return out, err
		}
		if c > 0 {
			out.Max = b.Max
		}
	}
	return out, nil
}

// Merge adds o into s.
func (s *Statistics) Merge(o Statistics) error {
	s.RowCount += o.RowCount
	s.BlockCount += o.BlockCount
	s.ByteSize += o.ByteSize
	if s.ColStats == nil {
		s.ColStats = make(map[ColumnID]ColStats, len(o.ColStats))
	}
	for id, st := range o.ColStats {
		cur, ok := s.ColStats[id]
		if !ok {
			s.ColStats[id] = st
			continue
		}
		merged, err := MergeColStats(cur, st)
		if err != nil {
			return err
		}
		s.ColStats[id] = merged
	}
	return nil
}

// ReduceBlockStatistics summarizes a list of block metas.
func ReduceBlockStatistics(blocks []BlockMeta) (Statistics, error) {
	summary := Statistics{ColStats: make(map[ColumnID]ColStats)}
	for _, blk := range blocks {
		err := summary.Merge(Statistics{
			RowCount:   blk.RowCount,
			BlockCount: 1,
			ByteSize:   blk.ByteSize,
			ColStats:   blk.ColStats,
		})
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// ReduceStatistics sums the summaries of several segments.
func ReduceStatistics(stats ...Statistics) (Statistics, error) {
	summary := Statistics{ColStats: make(map[ColumnID]ColStats)}
	for _, st := range stats {
		if err := summary.Merge(st); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
