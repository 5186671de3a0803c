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
	"regexp"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	mock_fileservice "github.com/matrixorigin/fusequery/pkg/fileservice/test"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

var testSchema = types.NewSchema(
	types.NewField("id", types.T_int64, false),
	types.NewField("name", types.T_varchar, true),
	types.NewField("score", types.T_float64, true),
	types.NewField("ok", types.T_bool, false),
	types.NewField("day", types.T_date, true),
	types.NewField("u", types.T_uint32, false),
)

func newTestBatch(t *testing.T, from, n int) *batch.Batch {
	ids := make([]int64, n)
	names := make([]string, n)
	nameNulls := make([]bool, n)
	scores := make([]float64, n)
	oks := make([]bool, n)
	days := make([]types.Date, n)
	us := make([]uint32, n)
	for i := 0; i < n; i++ {
		v := from + i
		ids[i] = int64(v)
		names[i] = "n" + strings.Repeat("x", v%3)
		nameNulls[i] = v%5 == 0
		scores[i] = float64(v) / 2
		oks[i] = v%2 == 0
		days[i] = types.Date(19000 + v)
		us[i] = uint32(4000000000 + v)
	}
	bat, err := batch.New(testSchema, []*vector.Vector{
		vector.NewFromSlice(types.T_int64, ids, nil),
		vector.NewFromSlice(types.T_varchar, names, nameNulls),
		vector.NewFromSlice(types.T_float64, scores, nil),
		vector.NewFromSlice(types.T_bool, oks, nil),
		vector.NewFromSlice(types.T_date, days, nil),
		vector.NewFromSlice(types.T_uint32, us, nil),
	})
	require.NoError(t, err)
	return bat
}

func TestLocations(t *testing.T) {
	tbl := TablePrefix(1, 7)
	require.Equal(t, "1/7", tbl)
	require.Regexp(t, regexp.MustCompile(`^1/7/_b/[0-9a-f]{32}\.parquet$`), GenBlockLocation(tbl))
	require.Regexp(t, regexp.MustCompile(`^1/7/_sg/[0-9a-f]{32}$`), GenSegmentLocation(tbl))
	require.NotEqual(t, GenSegmentLocation(tbl), GenSegmentLocation(tbl))

	loc := GenSnapshotLocation(tbl, SnapshotName(12))
	require.Regexp(t, regexp.MustCompile(`^1/7/_ss/12_[0-9a-f]{32}$`), loc)
	v, err := SnapshotVersion(loc)
	require.NoError(t, err)
	require.Equal(t, uint64(12), v)

	_, err = SnapshotVersion("1/7/_sg/12_abc")
	require.Error(t, err)
	_, err = SnapshotVersion("1/7/_ss/abc")
	require.Error(t, err)
}

func TestChooseEncoding(t *testing.T) {
	low := ColumnSummary{Rows: 1000, NDV: 3}
	high := ColumnSummary{Rows: 1000, NDV: 900}
	require.Equal(t, &parquet.RLE, ChooseEncoding(types.T_bool, low))
	require.Equal(t, &parquet.RLEDictionary, ChooseEncoding(types.T_int32, low))
	require.Equal(t, &parquet.DeltaBinaryPacked, ChooseEncoding(types.T_int32, high))
	require.Equal(t, &parquet.DeltaBinaryPacked, ChooseEncoding(types.T_timestamp, high))
	require.Equal(t, &parquet.Plain, ChooseEncoding(types.T_float64, high))
	require.Equal(t, &parquet.RLEDictionary, ChooseEncoding(types.T_float32, low))
	require.Equal(t, &parquet.RLEDictionary, ChooseEncoding(types.T_varchar, high))
	require.Equal(t, &parquet.Plain, ChooseEncoding(types.T_varchar, ColumnSummary{Rows: 10, NDV: 10, DistinctBytes: 2 << 20}))
	// too few rows for a dictionary to pay off
	require.Equal(t, &parquet.DeltaBinaryPacked, ChooseEncoding(types.T_int64, ColumnSummary{Rows: 2, NDV: 1}))
}

func TestInspectVector(t *testing.T) {
	vec := vector.NewFromSlice(types.T_varchar, []string{"a", "bb", "a", "bb", "ccc"}, []bool{false, false, false, false, true})
	s := InspectVector(vec)
	require.Equal(t, 5, s.Rows)
	require.Equal(t, 1, s.NullCount)
	require.InDelta(t, 2, float64(s.NDV), 1)
	require.Equal(t, 3, s.DistinctBytes)

	s = InspectVector(vector.NewConstNull(types.T_int32, 4))
	require.Zero(t, s.NDV)
	require.Equal(t, 4, s.NullCount)
}

func TestWriteBlockDeterministic(t *testing.T) {
	bat := newTestBatch(t, 0, 100)
	b1, err := WriteBlock(bat)
	require.NoError(t, err)
	b2, err := WriteBlock(bat)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestWriteReadBlock(t *testing.T) {
	ctx := context.Background()
	fs := fileservice.NewMemoryFS()
	bat := newTestBatch(t, 0, 50)

	data, err := WriteBlock(bat)
	require.NoError(t, err)
	loc := GenBlockLocation("1/1")
	require.NoError(t, fs.Put(ctx, loc, data))

	// the footer agrees with the block
	f, err := OpenBlock(ctx, fs, loc, int64(len(data)), 0)
	require.NoError(t, err)
	require.Equal(t, int64(50), f.NumRows())

	r := NewBlockReader(fs, testSchema, nil, 4096)
	got, err := r.Read(ctx, loc, int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 50, got.RowCount())
	for i := 0; i < 50; i++ {
		require.Equal(t, bat.Row(i), got.Row(i), "row %d", i)
	}

	// projection keeps the requested order
	r = NewBlockReader(fs, testSchema, []int{5, 1}, 0)
	got, err = r.Read(ctx, loc, int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, []string{"u", "name"}, got.Schema().Names())
	require.Equal(t, types.NewUInt32(4000000003), got.GetVector(0).Get(3))
	require.True(t, got.GetVector(1).Get(5).IsNull())

	// no column at all still counts rows
	r = NewBlockReader(fs, testSchema, []int{}, 0)
	got, err = r.Read(ctx, loc, int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 50, got.RowCount())

	_, err = NewBlockReader(fs, testSchema, nil, 0).Read(ctx, "1/1/_b/missing.parquet", 10)
	require.Error(t, err)
}

func TestAppendBlocks(t *testing.T) {
	ctx := context.Background()
	fs := fileservice.NewMemoryFS()
	a := NewBlockAppender(fs, "1/2", 30)

	input := streams.NewBlocksStream(testSchema,
		newTestBatch(t, 0, 70),
		batch.NewEmpty(testSchema),
		newTestBatch(t, 70, 10))
	entry, err := a.AppendBlocks(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, entry)

	seg := entry.SegmentInfo
	// 70 rows split in 30+30+10, then the 10 row block
	require.Len(t, seg.Blocks, 4)
	require.Equal(t, []uint64{30, 30, 10, 10}, []uint64{
		seg.Blocks[0].RowCount, seg.Blocks[1].RowCount, seg.Blocks[2].RowCount, seg.Blocks[3].RowCount,
	})
	require.Equal(t, uint64(80), seg.Summary.RowCount)

	var byteSize uint64
	mins := []int64{0, 30, 60, 70}
	for i, blk := range seg.Blocks {
		byteSize += blk.ByteSize
		size, err := fileservice.GetSize(ctx, fs, blk.Location)
		require.NoError(t, err)
		require.Equal(t, int64(blk.ByteSize), size)

		f, err := OpenBlock(ctx, fs, blk.Location, size, 0)
		require.NoError(t, err)
		require.Equal(t, int64(blk.RowCount), f.NumRows())

		// block order follows the stream
		require.Equal(t, types.NewInt64(mins[i]), blk.ColStats[0].Min)
	}
	require.Equal(t, byteSize, seg.Summary.ByteSize)
	require.Equal(t, types.NewInt64(79), seg.Summary.ColStats[0].Max)

	stored, err := ReadSegment(ctx, fs, entry.SegmentLocation)
	require.NoError(t, err)
	require.Equal(t, seg.Summary.RowCount, stored.Summary.RowCount)
	require.Equal(t, seg.Blocks[3].Location, stored.Blocks[3].Location)
}

func TestAppendEmptyStream(t *testing.T) {
	ctx := context.Background()
	fs := fileservice.NewMemoryFS()
	entry, err := NewBlockAppender(fs, "1/2", 0).AppendBlocks(ctx, streams.NewEmptyStream(testSchema))
	require.NoError(t, err)
	require.Nil(t, entry)
	paths, err := fs.List(ctx, "1/2")
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestAppendWriteFailure(t *testing.T) {
	ctx := context.Background()
	mem := fileservice.NewMemoryFS()
	fs := mock_fileservice.NewMockDataAccessor(gomock.NewController(t))
	fs.EXPECT().Name().Return(fileservice.BackendMemory).AnyTimes()
	gomock.InOrder(
		fs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(mem.Put),
		fs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(moerr.NewStorageIO(ctx, "disk full")),
	)
	input := streams.NewBlocksStream(testSchema, newTestBatch(t, 0, 5), newTestBatch(t, 5, 5))
	_, err := NewBlockAppender(fs, "1/2", 0).AppendBlocks(ctx, input)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStorageIO))

	// the first block stays behind, no segment was written
	paths, err := mem.List(ctx, "1/2")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Contains(t, paths[0], "/_b/")
}

func TestDecodeErrors(t *testing.T) {
	ctx := context.Background()
	fs := fileservice.NewMemoryFS()
	require.NoError(t, fs.Put(ctx, "1/2/_sg/bad", []byte("not json")))
	_, err := ReadSegment(ctx, fs, "1/2/_sg/bad")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))
	require.Contains(t, err.Error(), "1/2/_sg/bad")

	require.NoError(t, fs.Put(ctx, "1/2/_ss/1_bad", []byte("{}")))
	_, err = ReadSnapshot(ctx, fs, "1/2/_ss/1_bad")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))

	_, err = ReadSnapshot(ctx, fs, "1/2/_ss/missing")
	require.True(t, moerr.IsNotFound(err))
}
