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
	"encoding/json"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

// BlockMeta describes one parquet block file. ByteSize is the size of the
// object in the store, the in memory size is kept per column.
type BlockMeta struct {
	Location string                `json:"location"`
	RowCount uint64                `json:"row_count"`
	ByteSize uint64                `json:"byte_size"`
	ColStats map[ColumnID]ColStats `json:"col_stats"`
}

// SegmentInfo is the output of one append: its blocks in write order.
type SegmentInfo struct {
	Blocks  []BlockMeta `json:"blocks"`
	Summary Statistics  `json:"summary"`
}

// NewSegmentInfo summarizes blocks into a segment.
func NewSegmentInfo(blocks []BlockMeta) (*SegmentInfo, error) {
	summary, err := ReduceBlockStatistics(blocks)
	if err != nil {
		return nil, err
	}
	return &SegmentInfo{Blocks: blocks, Summary: summary}, nil
}

func (s *SegmentInfo) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func UnmarshalSegmentInfo(data []byte) (*SegmentInfo, error) {
	seg := &SegmentInfo{}
	if err := json.Unmarshal(data, seg); err != nil {
		return nil, moerr.NewInternalErrorNoCtx("decode segment: %v", err)
	}
	return seg, nil
}

// TableSnapshot is a point in time list of segments. Snapshots form a chain
// through PrevSnapshotID, which holds the location of the predecessor.
type TableSnapshot struct {
	Schema         *types.Schema `json:"schema"`
	Segments       []string      `json:"segments"`
	Summary        Statistics    `json:"summary"`
	PrevSnapshotID *string       `json:"prev_snapshot_id,omitempty"`
	// unix microseconds
	Timestamp int64 `json:"timestamp"`
}

func (s *TableSnapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func UnmarshalTableSnapshot(data []byte) (*TableSnapshot, error) {
	ss := &TableSnapshot{}
	if err := json.Unmarshal(data, ss); err != nil {
		return nil, moerr.NewInternalErrorNoCtx("decode snapshot: %v", err)
	}
	if ss.Schema == nil {
		return nil, moerr.NewInternalErrorNoCtx("decode snapshot: missing schema")
	}
	return ss, nil
}

// NextTimestamp returns now unless it does not move past prev.
func NextTimestamp(prev, now int64) int64 {
	if now <= prev {
		return prev + 1
	}
	return now
}
