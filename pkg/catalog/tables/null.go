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

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// NullTable discards what is written and reads nothing.
type NullTable struct {
	catalog.TableBase
}

func NewNullEngine() catalog.TableEngine {
	return catalog.TableEngineFunc{
		Desc: "NULL Storage Engine",
		OpenFunc: func(info *catalog.TableInfo) (catalog.Table, error) {
			return &NullTable{TableBase: catalog.TableBase{Info: info}}, nil
		},
	}
}

func (t *NullTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	return plan.Statistics{IsExact: true}, nil, nil
}

func (t *NullTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	return streams.NewEmptyStream(source.Schema()), nil
}

// AppendData drains input so that its errors still surface.
func (t *NullTable) AppendData(ctx context.Context, tctx catalog.TableContext, input streams.Stream) (streams.Stream, error) {
	return streams.NewFuncStream(t.Schema(), func(ctx context.Context) (*batch.Batch, error) {
		for {
			bat, err := input.Next(ctx)
			if bat == nil || err != nil {
				return nil, err
			}
		}
	}), nil
}

func (t *NullTable) Commit(context.Context, catalog.TableContext, []*batch.Batch, bool) error { return nil }
func (t *NullTable) Truncate(context.Context, catalog.TableContext, bool) error               { return nil }
