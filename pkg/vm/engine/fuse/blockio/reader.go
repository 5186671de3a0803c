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
	"errors"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
)

// BlockReader decodes projected columns of block files.
type BlockReader struct {
	da     fileservice.DataAccessor
	schema *types.Schema
	// indexes into schema, nil reads every column
	projection []int
	bufferSize int
}

func NewBlockReader(da fileservice.DataAccessor, schema *types.Schema, projection []int, bufferSize int) *BlockReader {
	return &BlockReader{
		da:         da,
		schema:     schema,
		projection: projection,
		bufferSize: bufferSize,
	}
}

// OutputSchema is the schema of the blocks Read returns.
func (r *BlockReader) OutputSchema() *types.Schema {
	if r.projection == nil {
		return r.schema
	}
	return r.schema.Project(r.projection)
}

// Read loads the block at location, size is the object size recorded in
// its BlockMeta.
func (r *BlockReader) Read(ctx context.Context, location string, size int64) (*batch.Batch, error) {
	f, err := OpenBlock(ctx, r.da, location, size, r.bufferSize)
	if err != nil {
		return nil, err
	}

	return DecodeFile(ctx, f, r.OutputSchema(), location)
}

// DecodeFile reads the columns of schema from f by name. Columns absent
// from f are an error naming location.
func DecodeFile(ctx context.Context, f *parquet.File, schema *types.Schema, location string) (*batch.Batch, error) {
	var err error
	vecs := make([]*vector.Vector, schema.Len())
	for i, field := range schema.Fields() {
		col := f.Root().Column(field.Name)
		if col == nil {
			return nil, moerr.NewInternalError(ctx, "column %s not found in block %s", field.Name, location)
		}
		if vecs[i], err = readColumn(ctx, col, field.Typ); err != nil {
			return nil, err
		}
	}
	if len(vecs) == 0 {
		// count(*) style reads project no column
		return batch.NewWithRowCount(schema, vecs, int(f.NumRows()))
	}
	return batch.New(schema, vecs)
}

// OpenBlock opens the parquet footer of a block file.
func OpenBlock(ctx context.Context, da fileservice.DataAccessor, location string, size int64, bufferSize int) (*parquet.File, error) {
	opts := []parquet.FileOption{
		parquet.SkipPageIndex(true),
		parquet.SkipBloomFilters(true),
	}
	if bufferSize > 0 {
		opts = append(opts, parquet.ReadBufferSize(bufferSize))
	}
	f, err := parquet.OpenFile(fileservice.NewReaderAt(ctx, da, location, size), size, opts...)
	if err != nil {
		if moerr.IsMoErrCode(err, moerr.ErrNotFound) || moerr.IsAborted(err) {
			return nil, err
		}
		return nil, moerr.NewInternalError(ctx, "open block %s: %v", location, err)
	}
	return f, nil
}

func readColumn(ctx context.Context, col *parquet.Column, typ types.T) (*vector.Vector, error) {
	vec := vector.NewVec(typ)
	pages := col.Pages()
	defer pages.Close()
	for {
		page, err := pages.ReadPage()
		if errors.Is(err, io.EOF) {
			return vec, nil
		}
		if err != nil {
			return nil, moerr.ConvertGoError(ctx, err)
		}
		values, err := readPageValues(page)
		if err != nil {
			return nil, moerr.ConvertGoError(ctx, err)
		}
		for _, v := range values {
			if err = vec.AppendValue(fromParquetValue(v, typ)); err != nil {
				return nil, err
			}
		}
	}
}

func readPageValues(page parquet.Page) ([]parquet.Value, error) {
	values := make([]parquet.Value, page.NumValues())
	r := page.Values()
	n := 0
	for n < len(values) {
		k, err := r.ReadValues(values[n:])
		n += k
		if errors.Is(err, io.EOF) || (err == nil && k == 0) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return values[:n], nil
}

func fromParquetValue(v parquet.Value, typ types.T) types.DataValue {
	if v.IsNull() {
		return types.NewNull(typ)
	}
	switch typ {
	case types.T_bool:
		return types.NewBool(v.Boolean())
	case types.T_int8, types.T_int16, types.T_int32:
		return types.NewInt(typ, int64(v.Int32()))
	case types.T_int64:
		return types.NewInt64(v.Int64())
	case types.T_uint8, types.T_uint16, types.T_uint32:
		return types.NewUint(typ, uint64(uint32(v.Int32())))
	case types.T_uint64:
		return types.NewUInt64(uint64(v.Int64()))
	case types.T_float32:
		return types.NewFloat32(v.Float())
	case types.T_float64:
		return types.NewFloat64(v.Double())
	case types.T_varchar:
		return types.NewString(string(v.ByteArray()))
	case types.T_date:
		return types.NewDate(types.Date(v.Int32()))
	case types.T_timestamp:
		return types.NewTimestamp(types.Timestamp(v.Int64()))
	}
	return types.NewNull(typ)
}
