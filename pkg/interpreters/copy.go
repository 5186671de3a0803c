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

package interpreters

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/matrixorigin/simdcsv"
	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/sql/planner"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/blockio"
)

const (
	csvHeaderOption    = "csv_header"
	csvDelimiterOption = "csv_delimitor"

	// csvNull is how CSV files spell NULL
	csvNull = `\N`
)

type CopyInterpreter struct {
	qctx *sessions.QueryContext
	plan *plan.CopyPlan
}

func NewCopyInterpreter(qctx *sessions.QueryContext, p *plan.CopyPlan) *CopyInterpreter {
	return &CopyInterpreter{qctx: qctx, plan: p}
}

func (i *CopyInterpreter) Name() string          { return "CopyInterpreter" }
func (i *CopyInterpreter) Schema() *types.Schema { return i.plan.Schema() }

// Execute loads every object at the location, one input stream per
// object, through the same append path as INSERT.
func (i *CopyInterpreter) Execute(ctx context.Context, _ ...streams.Stream) (streams.Stream, error) {
	tbl, err := i.qctx.GetTable(ctx, i.plan.Database, i.plan.Table)
	if err != nil {
		return nil, err
	}
	da := i.qctx.GetDataAccessor()
	paths, err := i.objects(ctx, da)
	if err != nil {
		return nil, err
	}
	inputs := make([]streams.Stream, 0, len(paths))
	for _, path := range paths {
		var s streams.Stream
		switch strings.ToUpper(i.plan.Format) {
		case planner.CopyFormatCSV:
			s, err = i.csvStream(ctx, da, path)
		case planner.CopyFormatParquet:
			s, err = i.parquetStream(ctx, da, path)
		default:
			err = moerr.NewBadArguments(ctx, "unsupported copy format %s", i.plan.Format)
		}
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, s)
	}
	if len(inputs) == 0 {
		return finished(), nil
	}
	if err := appendStreams(ctx, i.qctx, tbl, inputs, false); err != nil {
		return nil, err
	}
	return finished(), nil
}

// objects resolves the location. A location ending with '/' names every
// object below it.
func (i *CopyInterpreter) objects(ctx context.Context, da fileservice.DataAccessor) ([]string, error) {
	location := strings.TrimPrefix(i.plan.Location, "@")
	if !strings.HasSuffix(location, "/") {
		return []string{location}, nil
	}
	paths, err := da.List(ctx, location)
	if err != nil {
		return nil, err
	}
	return lo.Filter(paths, func(p string, _ int) bool {
		return !strings.HasSuffix(p, "/")
	}), nil
}

func (i *CopyInterpreter) csvOptions(ctx context.Context) (header bool, delimiter rune, err error) {
	delimiter = ','
	if v, ok := i.plan.Options[csvHeaderOption]; ok {
		switch strings.TrimSpace(v) {
		case "0":
		case "1":
			header = true
		default:
			return false, 0, moerr.NewBadArguments(ctx, "%s must be 0 or 1, got %s", csvHeaderOption, v)
		}
	}
	if v, ok := i.plan.Options[csvDelimiterOption]; ok {
		if utf8.RuneCountInString(v) != 1 {
			return false, 0, moerr.NewBadArguments(ctx, "%s must be a single character, got %q", csvDelimiterOption, v)
		}
		delimiter, _ = utf8.DecodeRuneInString(v)
	}
	return header, delimiter, nil
}

// csvStream reads records as strings, the append path casts them to the
// table schema.
func (i *CopyInterpreter) csvStream(ctx context.Context, da fileservice.DataAccessor, path string) (streams.Stream, error) {
	header, delimiter, err := i.csvOptions(ctx)
	if err != nil {
		return nil, err
	}
	target := i.plan.TableSchema
	fields := make([]types.Field, target.Len())
	for j, f := range target.Fields() {
		fields[j] = types.NewField(f.Name, types.T_varchar, f.Nullable)
	}
	schema := types.NewSchema(fields...)

	raw, err := da.GetStream(ctx, path, 0, -1)
	if err != nil {
		return nil, err
	}
	reader := simdcsv.NewReaderWithOptions(raw, delimiter, '#', true, true)
	records, err := reader.ReadAll()
	reader.Close()
	closeQuietly(raw)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "read csv %s: %v", path, err)
	}
	if header && len(records) > 0 {
		records = records[1:]
	}
	blockSize := i.qctx.GetMaxBlockSize()
	if blockSize <= 0 {
		blockSize = 65536
	}
	return streams.NewFuncStream(schema, func(ctx context.Context) (*batch.Batch, error) {
		if len(records) == 0 {
			return nil, nil
		}
		n := min(blockSize, len(records))
		block := records[:n]
		records = records[n:]
		rows := make([][]types.DataValue, len(block))
		for r, record := range block {
			if len(record) != len(fields) {
				records = nil
				return nil, moerr.NewBadArguments(ctx, "csv %s: record has %d fields, table has %d columns", path, len(record), len(fields))
			}
			row := make([]types.DataValue, len(record))
			for c, v := range record {
				if v == csvNull && fields[c].Nullable {
					row[c] = types.NewNull(types.T_varchar)
				} else {
					row[c] = types.NewString(v)
				}
			}
			rows[r] = row
		}
		return batch.FromValues(schema, rows)
	}), nil
}

// parquetStream decodes the table columns of a parquet object by name.
func (i *CopyInterpreter) parquetStream(ctx context.Context, da fileservice.DataAccessor, path string) (streams.Stream, error) {
	data, err := da.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "open parquet %s: %v", path, err)
	}
	bat, err := blockio.DecodeFile(ctx, f, i.plan.TableSchema, path)
	if err != nil {
		return nil, err
	}
	return streams.NewOneBlockStream(bat), nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
