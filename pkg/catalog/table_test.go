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

package catalog_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	mock_catalog "github.com/matrixorigin/fusequery/pkg/catalog/test"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

var numbersSchema = types.NewSchema(types.NewField("n", types.T_uint64, false))

func readNumbers(_ context.Context, part plan.Partition) ([]*batch.Batch, error) {
	if part.Rows() == 0 {
		return nil, nil
	}
	rows := make([][]types.DataValue, 0, part.Rows())
	for i := part.Begin; i < part.End; i++ {
		rows = append(rows, []types.DataValue{types.NewUInt64(i)})
	}
	bat, err := batch.FromValues(numbersSchema, rows)
	return []*batch.Batch{bat}, err
}

func TestPartitionStream(t *testing.T) {
	ctx := context.Background()
	tctx := mock_catalog.NewMockTableContext(gomock.NewController(t))
	// one partition per steal, empty ones produce no block
	gomock.InOrder(
		tctx.EXPECT().TryGetPartitions(1).Return([]plan.Partition{{Begin: 2, End: 5}}),
		tctx.EXPECT().TryGetPartitions(1).Return([]plan.Partition{{Begin: 2, End: 2}}),
		tctx.EXPECT().TryGetPartitions(1).Return([]plan.Partition{{Begin: 0, End: 2}}),
		tctx.EXPECT().TryGetPartitions(1).Return(nil),
	)

	bats, err := streams.Collect(ctx, catalog.NewPartitionStream(tctx, numbersSchema, readNumbers))
	require.NoError(t, err)
	require.Len(t, bats, 2)
	require.Equal(t, 3, bats[0].RowCount())
	require.Equal(t, 2, bats[1].RowCount())
}

func TestPartitionStreamReadError(t *testing.T) {
	ctx := context.Background()
	tctx := mock_catalog.NewMockTableContext(gomock.NewController(t))
	tctx.EXPECT().TryGetPartitions(1).Return([]plan.Partition{{Name: "1/2/_b/lost.parquet"}})

	failed := func(ctx context.Context, part plan.Partition) ([]*batch.Batch, error) {
		return nil, moerr.NewStorageIO(ctx, "read %s", part.Name)
	}
	_, err := streams.Collect(ctx, catalog.NewPartitionStream(tctx, numbersSchema, failed))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStorageIO))
}
