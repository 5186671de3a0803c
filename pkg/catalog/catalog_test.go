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

package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

func TestRegistryCaseInsensitive(t *testing.T) {
	r := NewTableEngineRegistry()
	engine := TableEngineFunc{Desc: "test engine", OpenFunc: func(info *TableInfo) (Table, error) {
		return nil, moerr.NewNYI(context.Background(), "open %s", info.Desc)
	}}
	require.NoError(t, r.Register("Fuse", engine))

	for _, name := range []string{"fuse", "FUSE", "fUsE"} {
		got, ok := r.Get(name)
		require.True(t, ok, name)
		require.Equal(t, "test engine", got.Description())
	}
	_, ok := r.Get("memory")
	require.False(t, ok)

	err := r.Register("FUSE", engine)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrAlreadyExists))
	// the first registration survives
	require.Equal(t, []string{"Fuse"}, r.Names())
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewTableFunctionRegistry()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Register("numbers", func(context.Context, []types.DataValue) (Table, error) { return nil, nil })
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestTableInfoFromMeta(t *testing.T) {
	schema := types.NewSchema(types.NewField("c1", types.T_int32, true))
	meta := &metastore.TableMeta{
		ID: 7, DatabaseID: 2, Database: "db1", Name: "t", Schema: schema,
		Engine: FuseTableEngine, Options: map[string]string{"k": "v"}, Version: 3,
	}
	info := TableInfoFromMeta(meta)
	require.Equal(t, "'db1'.'t'", info.Desc)
	require.Equal(t, uint64(7), info.ID)
	require.Equal(t, uint64(3), info.Version)
	v, ok := info.Option("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	// the info owns its options
	info.Options["k"] = "w"
	require.Equal(t, "v", meta.Options["k"])
}

func TestTableBaseIsReadOnly(t *testing.T) {
	ctx := context.Background()
	tbl := &TableBase{Info: NewTableInfo("db", "t", types.NewSchema(), NullTableEngine)}
	_, err := tbl.AppendData(ctx, nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNYI))
	require.True(t, moerr.IsMoErrCode(tbl.Commit(ctx, nil, nil, false), moerr.ErrNYI))
	require.True(t, moerr.IsMoErrCode(tbl.Truncate(ctx, nil, true), moerr.ErrNYI))
}
