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

package metastore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	seq1, err := s.Put(ctx, "a", []byte("1"))
	require.NoError(t, err)
	require.NotZero(t, seq1)
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, SeqV{Seq: seq1, Value: []byte("1")}, v)

	// create only
	_, err = s.PutIf(ctx, "a", []byte("x"), 0)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrConflict))
	seq2, err := s.PutIf(ctx, "a", []byte("2"), seq1)
	require.NoError(t, err)
	require.Greater(t, seq2, seq1)
	_, err = s.PutIf(ctx, "a", []byte("3"), seq1)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrConflict))
	_, err = s.PutIf(ctx, "b", []byte("b"), 0)
	require.NoError(t, err)

	for _, k := range []string{"p/2", "p/1", "p/1/x", "q"} {
		_, err = s.Put(ctx, k, []byte(k))
		require.NoError(t, err)
	}
	kvs, err := s.Scan(ctx, "p/")
	require.NoError(t, err)
	keys := make([]string, len(kvs))
	for i, kv := range kvs {
		keys[i] = kv.Key
	}
	require.Equal(t, []string{"p/1", "p/1/x", "p/2"}, keys)

	ok, err = s.Delete(ctx, "p/1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Delete(ctx, "p/1")
	require.NoError(t, err)
	require.False(t, ok)

	all, err := s.Scan(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 5)

	// racing compare and set, exactly one winner per round
	cur, _, err := s.Get(ctx, "q")
	require.NoError(t, err)
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.PutIf(ctx, "q", []byte("w"), cur.Seq); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestPebbleStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(dir)
	require.NoError(t, err)
	testStore(t, s)
	last, _, err := s.Get(context.Background(), "q")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// sequences keep growing after a reopen
	s, err = NewPebbleStore(dir)
	require.NoError(t, err)
	defer s.Close()
	seq, err := s.Put(context.Background(), "z", nil)
	require.NoError(t, err)
	require.Greater(t, seq, last.Seq)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, config.MetaConfig{Backend: config.MetaBackendMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(ctx, config.MetaConfig{Backend: config.MetaBackendPebble, DataDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &PebbleStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(ctx, config.MetaConfig{Backend: "etcd"})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestCatalogMeta(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogMeta(NewMemoryStore())

	id1, err := c.CreateDatabase(ctx, DatabaseMeta{Name: "db1", Engine: "DEFAULT"}, false)
	require.NoError(t, err)
	_, err = c.CreateDatabase(ctx, DatabaseMeta{Name: "db1"}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrAlreadyExists))
	again, err := c.CreateDatabase(ctx, DatabaseMeta{Name: "db1"}, true)
	require.NoError(t, err)
	require.Equal(t, id1, again)
	id2, err := c.CreateDatabase(ctx, DatabaseMeta{Name: "db2"}, false)
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	_, err = c.GetDatabase(ctx, "nope")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase))

	schema := types.NewSchema(types.NewField("c1", types.T_int32, true))
	tbl, err := c.CreateTable(ctx, TableMeta{Database: "db1", Name: "t", Schema: schema, Engine: "FUSE"}, false)
	require.NoError(t, err)
	require.Equal(t, id1, tbl.DatabaseID)
	require.NotZero(t, tbl.Version)
	_, err = c.CreateTable(ctx, TableMeta{Database: "db1", Name: "t", Schema: schema}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrAlreadyExists))
	same, err := c.CreateTable(ctx, TableMeta{Database: "db1", Name: "t", Schema: schema}, true)
	require.NoError(t, err)
	require.Equal(t, tbl.ID, same.ID)
	_, err = c.CreateTable(ctx, TableMeta{Database: "nope", Name: "t", Schema: schema}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase))
	_, err = c.CreateTable(ctx, TableMeta{Database: "db2", Name: "other", Schema: schema}, false)
	require.NoError(t, err)

	got, err := c.GetTable(ctx, "db1", "t")
	require.NoError(t, err)
	require.True(t, got.Schema.Equal(schema))
	require.Equal(t, tbl.Version, got.Version)
	byID, err := c.GetTableByID(ctx, tbl.ID)
	require.NoError(t, err)
	require.Equal(t, "t", byID.Name)
	_, err = c.GetTable(ctx, "db1", "nope")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownTable))

	tables, err := c.ListTables(ctx, "db1")
	require.NoError(t, err)
	require.Len(t, tables, 1)

	// optimistic option updates
	v2, err := c.UpsertTableOption(ctx, tbl.ID, tbl.Version, "SNAPSHOT_LOCATION", "1/1/_ss/1_a")
	require.NoError(t, err)
	require.Greater(t, v2, tbl.Version)
	_, err = c.UpsertTableOption(ctx, tbl.ID, tbl.Version, "SNAPSHOT_LOCATION", "1/1/_ss/1_b")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrConflict))
	got, err = c.GetTable(ctx, "db1", "t")
	require.NoError(t, err)
	require.Equal(t, "1/1/_ss/1_a", got.Options["SNAPSHOT_LOCATION"])
	require.Equal(t, v2, got.Version)

	dropped, err := c.DropTable(ctx, "db1", "t", false)
	require.NoError(t, err)
	require.Equal(t, tbl.ID, dropped.ID)
	dropped, err = c.DropTable(ctx, "db1", "t", true)
	require.NoError(t, err)
	require.Nil(t, dropped)
	_, err = c.DropTable(ctx, "db1", "t", false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownTable))
	_, err = c.GetTableByID(ctx, tbl.ID)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownTable))

	droppedTables, err := c.DropDatabase(ctx, "db2", false)
	require.NoError(t, err)
	require.Len(t, droppedTables, 1)
	dbs, err := c.ListDatabases(ctx)
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	_, err = c.DropDatabase(ctx, "db2", true)
	require.NoError(t, err)
	_, err = c.DropDatabase(ctx, "db2", false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase))
}

func TestNextIDConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewCatalogMeta(NewMemoryStore())
	var wg sync.WaitGroup
	ids := make([]uint64, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := c.NextID(ctx, "t")
			require.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()
	seen := make(map[uint64]bool)
	for _, id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}
}
