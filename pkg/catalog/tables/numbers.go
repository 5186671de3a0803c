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

package tables

import (
	"context"
	"fmt"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

const (
	NumbersFunctionName      = "numbers"
	NumbersMTFunctionName    = "numbers_mt"
	NumbersLocalFunctionName = "numbers_local"

	defaultNumbersBlockSize = 10000
)

var numbersSchema = types.NewSchema(types.NewField("number", types.T_uint64, false))

// NumbersTable generates the numbers 0..total-1 in a single column.
type NumbersTable struct {
	catalog.TableBase
	total uint64
	// numbers_local plans one partition and so runs on one thread
	local bool
}

// NewNumbersFunction returns the table function registered as name.
func NewNumbersFunction(name string) catalog.TableFunction {
	return func(ctx context.Context, args []types.DataValue) (catalog.Table, error) {
		if len(args) != 1 {
			return nil, moerr.NewBadArguments(ctx, "%s expects 1 argument, got %d", name, len(args))
		}
		arg := args[0]
		if arg.IsNull() || !arg.DataType().IsInteger() {
			return nil, moerr.NewBadArguments(ctx, "%s expects an integer argument, got %s", name, arg)
		}
		if arg.DataType().IsSignedInt() && arg.Int64() < 0 {
			return nil, moerr.NewBadArguments(ctx, "%s expects a non-negative argument, got %d", name, arg.Int64())
		}
		total := arg.Uint64()
		if arg.DataType().IsSignedInt() {
			total = uint64(arg.Int64())
		}
		info := catalog.NewTableInfo(catalog.SystemDatabaseName, name, numbersSchema, catalog.TableFuncEngine)
		return &NumbersTable{
			TableBase: catalog.TableBase{Info: info},
			total:     total,
			local:     name == NumbersLocalFunctionName,
		}, nil
	}
}

func (t *NumbersTable) blockSize(tctx catalog.TableContext) uint64 {
	if n := tctx.GetMaxBlockSize(); n > 0 {
		return uint64(n)
	}
	return defaultNumbersBlockSize
}

func (t *NumbersTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	total := t.total
	if push.Limit > 0 && len(push.Filters) == 0 {
		total = min(total, uint64(push.Limit))
	}
	step := t.blockSize(tctx)
	if t.local {
		step = max(total, 1)
	}
	var parts []plan.Partition
	for begin := uint64(0); begin < total; begin += step {
		end := min(begin+step, total)
		parts = append(parts, plan.Partition{
			Name:     fmt.Sprintf("%s-%d-%d", t.Name(), begin, end),
			Version:  0,
			Begin:    begin,
			End:      end,
			ByteSize: (end - begin) * 8,
		})
	}
	stats := plan.Statistics{
		ReadRows:          total,
		ReadBytes:         total * 8,
		PartitionsScanned: len(parts),
		PartitionsTotal:   len(parts),
		IsExact:           true,
	}
	return stats, parts, nil
}

func (t *NumbersTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	step := t.blockSize(tctx)
	return catalog.NewPartitionStream(tctx, numbersSchema, func(ctx context.Context, part plan.Partition) ([]*batch.Batch, error) {
		bats := make([]*batch.Batch, 0, (part.Rows()+step-1)/step)
		for begin := part.Begin; begin < part.End; begin += step {
			end := min(begin+step, part.End)
			col := make([]uint64, 0, end-begin)
			for n := begin; n < end; n++ {
				col = append(col, n)
			}
			bat, err := batch.New(numbersSchema, []*vector.Vector{vector.NewFromSlice(types.T_uint64, col, nil)})
			if err != nil {
				return nil, err
			}
			bats = append(bats, bat)
		}
		return bats, nil
	}), nil
}
