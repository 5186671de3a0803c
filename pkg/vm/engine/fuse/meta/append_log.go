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
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

// AppendLogEntry records the segment written by one append. Commit turns a
// set of entries into a new snapshot.
type AppendLogEntry struct {
	SegmentLocation string
	SegmentInfo     *SegmentInfo
}

// AppendLogSchema is the schema of the blocks carrying entries down the
// processor graph, one entry per row.
var AppendLogSchema = types.NewSchema(
	types.NewField("seg_loc", types.T_varchar, false),
	types.NewField("seg_info", types.T_varchar, false),
)

// ToBatch encodes the entry as a single row block.
func (e *AppendLogEntry) ToBatch() (*batch.Batch, error) {
	info, err := e.SegmentInfo.Marshal()
	if err != nil {
		return nil, err
	}
	return batch.New(AppendLogSchema, []*vector.Vector{
		vector.NewFromSlice(types.T_varchar, []string{e.SegmentLocation}, nil),
		vector.NewFromSlice(types.T_varchar, []string{string(info)}, nil),
	})
}

// AppendLogEntriesFromBatch decodes every row of bat.
func AppendLogEntriesFromBatch(bat *batch.Batch) ([]AppendLogEntry, error) {
	if !bat.Schema().Equal(AppendLogSchema) {
		return nil, moerr.NewInternalErrorNoCtx("not an append log block: %s", bat.Schema())
	}
	entries := make([]AppendLogEntry, 0, bat.RowCount())
	for i := 0; i < bat.RowCount(); i++ {
		row := bat.Row(i)
		seg := &SegmentInfo{}
		if err := json.Unmarshal([]byte(row[1].Str()), seg); err != nil {
			return nil, moerr.NewInternalErrorNoCtx("decode append log entry: %v", err)
		}
		entries = append(entries, AppendLogEntry{
			SegmentLocation: row[0].Str(),
			SegmentInfo:     seg,
		})
	}
	return entries, nil
}
