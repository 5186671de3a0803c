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

package blockio

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

// BlockAppender turns a block stream into block files plus one segment.
type BlockAppender struct {
	da  fileservice.DataAccessor
	tbl string
	// rows per block file, 0 keeps the incoming blocks whole
	maxBlockSize int
}

func NewBlockAppender(da fileservice.DataAccessor, tbl string, maxBlockSize int) *BlockAppender {
	return &BlockAppender{
		da:           da,
		tbl:          tbl,
		maxBlockSize: maxBlockSize,
	}
}

// AppendBlocks drains input. Each block is written as one or more parquet
// files in stream order, then a segment listing them. It returns nil when
// the stream held no rows. A failed write aborts the append and leaves the
// objects already written behind.
func (a *BlockAppender) AppendBlocks(ctx context.Context, input streams.Stream) (*meta.AppendLogEntry, error) {
	var blocks []meta.BlockMeta
	for {
		bat, err := input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if bat == nil {
			break
		}
		for _, part := range a.split(bat) {
			blk, err := a.writeBlock(ctx, part)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, blk)
		}
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	seg, err := meta.NewSegmentInfo(blocks)
	if err != nil {
		return nil, err
	}
	location := GenSegmentLocation(a.tbl)
	if err = WriteSegment(ctx, a.da, location, seg); err != nil {
		return nil, err
	}
	logutil.DebugCtx(ctx, "segment appended",
		zap.String("path", location),
		zap.Int("blocks", len(blocks)),
		zap.Uint64("rows", seg.Summary.RowCount))
	return &meta.AppendLogEntry{SegmentLocation: location, SegmentInfo: seg}, nil
}

func (a *BlockAppender) split(bat *batch.Batch) []*batch.Batch {
	rows := bat.RowCount()
	if rows == 0 {
		return nil
	}
	if a.maxBlockSize <= 0 || rows <= a.maxBlockSize {
		return []*batch.Batch{bat}
	}
	parts := make([]*batch.Batch, 0, (rows+a.maxBlockSize-1)/a.maxBlockSize)
	for off := 0; off < rows; off += a.maxBlockSize {
		n := min(a.maxBlockSize, rows-off)
		part, err := bat.Slice(off, n)
		if err != nil {
			// offsets are in range by construction
			panic(err)
		}
		parts = append(parts, part)
	}
	return parts
}

func (a *BlockAppender) writeBlock(ctx context.Context, bat *batch.Batch) (meta.BlockMeta, error) {
	stats, err := meta.ColumnStatistics(bat)
	if err != nil {
		return meta.BlockMeta{}, err
	}
	data, err := WriteBlock(bat)
	if err != nil {
		return meta.BlockMeta{}, err
	}
	location := GenBlockLocation(a.tbl)
	if err = a.da.Put(ctx, location, data); err != nil {
		return meta.BlockMeta{}, err
	}
	return meta.BlockMeta{
		Location: location,
		RowCount: uint64(bat.RowCount()),
		ByteSize: uint64(len(data)),
		ColStats: stats,
	}, nil
}
