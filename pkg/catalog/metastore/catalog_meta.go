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
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

const (
	DatabasePrefix = "__fd_database/"
	TablePrefix    = "__fd_table/"
	TableIDPrefix  = "__fd_table_id/"
	UserPrefix     = "__fd_users/"
	IDGenPrefix    = "__fd_id_gen/"

	maxIDGenAttempts = 16
)

type DatabaseMeta struct {
	ID      uint64            `json:"id"`
	Name    string            `json:"name"`
	Engine  string            `json:"engine"`
	Options map[string]string `json:"options,omitempty"`
}

// TableMeta is the persisted description of a table. Version is the
// sequence of its last write and moves on every option change.
type TableMeta struct {
	ID         uint64            `json:"id"`
	DatabaseID uint64            `json:"database_id"`
	Database   string            `json:"database"`
	Name       string            `json:"name"`
	Schema     *types.Schema     `json:"schema"`
	Engine     string            `json:"engine"`
	Options    map[string]string `json:"options,omitempty"`
	Version    uint64            `json:"-"`
}

// CatalogMeta keeps databases and tables in a Store.
type CatalogMeta struct {
	store Store
}

func NewCatalogMeta(store Store) *CatalogMeta {
	return &CatalogMeta{store: store}
}

func (c *CatalogMeta) Store() Store {
	return c.store
}

func databaseKey(name string) string {
	return DatabasePrefix + name
}

func tableKey(dbID uint64, name string) string {
	return TablePrefix + strconv.FormatUint(dbID, 10) + "/" + name
}

func tableIDKey(id uint64) string {
	return TableIDPrefix + strconv.FormatUint(id, 10)
}

// NextID hands out increasing ids of the named generator, starting at 1.
func (c *CatalogMeta) NextID(ctx context.Context, generator string) (uint64, error) {
	key := IDGenPrefix + generator
	for i := 0; i < maxIDGenAttempts; i++ {
		v, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		var cur uint64
		if ok {
			if cur, err = strconv.ParseUint(string(v.Value), 10, 64); err != nil {
				return 0, moerr.NewInternalError(ctx, "corrupted id generator %s", generator)
			}
		}
		next := cur + 1
		_, err = c.store.PutIf(ctx, key, []byte(strconv.FormatUint(next, 10)), v.Seq)
		if err == nil {
			return next, nil
		}
		if !moerr.IsMoErrCode(err, moerr.ErrConflict) {
			return 0, err
		}
	}
	return 0, moerr.NewConflict(ctx, "id generator %s is too contended", generator)
}

// CreateDatabase stores meta with a fresh id. With ifNotExists an
// existing database is left alone and its id returned.
func (c *CatalogMeta) CreateDatabase(ctx context.Context, meta DatabaseMeta, ifNotExists bool) (uint64, error) {
	if old, err := c.GetDatabase(ctx, meta.Name); err == nil {
		if ifNotExists {
			return old.ID, nil
		}
		return 0, moerr.NewAlreadyExists(ctx, "Database: '%s' already exists.", meta.Name)
	} else if !moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase) {
		return 0, err
	}

	id, err := c.NextID(ctx, "database")
	if err != nil {
		return 0, err
	}
	meta.ID = id
	data, err := json.Marshal(meta)
	if err != nil {
		return 0, moerr.ConvertGoError(ctx, err)
	}
	if _, err = c.store.PutIf(ctx, databaseKey(meta.Name), data, 0); err != nil {
		if moerr.IsMoErrCode(err, moerr.ErrConflict) {
			// lost a race with another creator
			if ifNotExists {
				old, err := c.GetDatabase(ctx, meta.Name)
				if err != nil {
					return 0, err
				}
				return old.ID, nil
			}
			return 0, moerr.NewAlreadyExists(ctx, "Database: '%s' already exists.", meta.Name)
		}
		return 0, err
	}
	return id, nil
}

func (c *CatalogMeta) GetDatabase(ctx context.Context, name string) (*DatabaseMeta, error) {
	v, ok, err := c.store.Get(ctx, databaseKey(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, moerr.NewUnknownDatabase(ctx, "Unknown database '%s'", name)
	}
	meta := &DatabaseMeta{}
	if err = json.Unmarshal(v.Value, meta); err != nil {
		return nil, moerr.NewInternalError(ctx, "decode database %s: %v", name, err)
	}
	return meta, nil
}

func (c *CatalogMeta) ListDatabases(ctx context.Context) ([]*DatabaseMeta, error) {
	kvs, err := c.store.Scan(ctx, DatabasePrefix)
	if err != nil {
		return nil, err
	}
	metas := make([]*DatabaseMeta, 0, len(kvs))
	for _, kv := range kvs {
		meta := &DatabaseMeta{}
		if err = json.Unmarshal(kv.Value, meta); err != nil {
			return nil, moerr.NewInternalError(ctx, "decode database %s: %v", kv.Key, err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// DropDatabase removes the database and the metadata of its tables. It
// returns the dropped tables so their engines can clean up.
func (c *CatalogMeta) DropDatabase(ctx context.Context, name string, ifExists bool) ([]*TableMeta, error) {
	db, err := c.GetDatabase(ctx, name)
	if err != nil {
		if ifExists && moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase) {
			return nil, nil
		}
		return nil, err
	}
	tables, err := c.ListTables(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, tbl := range tables {
		if _, err = c.store.Delete(ctx, tableKey(db.ID, tbl.Name)); err != nil {
			return nil, err
		}
		if _, err = c.store.Delete(ctx, tableIDKey(tbl.ID)); err != nil {
			return nil, err
		}
	}
	if _, err = c.store.Delete(ctx, databaseKey(name)); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *CatalogMeta) CreateTable(ctx context.Context, meta TableMeta, ifNotExists bool) (*TableMeta, error) {
	db, err := c.GetDatabase(ctx, meta.Database)
	if err != nil {
		return nil, err
	}
	exists := func() (*TableMeta, error) {
		if ifNotExists {
			return c.GetTable(ctx, meta.Database, meta.Name)
		}
		return nil, moerr.NewAlreadyExists(ctx, "Table: '%s.%s' already exists.", meta.Database, meta.Name)
	}
	if _, ok, err := c.store.Get(ctx, tableKey(db.ID, meta.Name)); err != nil {
		return nil, err
	} else if ok {
		return exists()
	}

	id, err := c.NextID(ctx, "table")
	if err != nil {
		return nil, err
	}
	meta.ID = id
	meta.DatabaseID = db.ID
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	seq, err := c.store.PutIf(ctx, tableKey(db.ID, meta.Name), data, 0)
	if err != nil {
		if moerr.IsMoErrCode(err, moerr.ErrConflict) {
			return exists()
		}
		return nil, err
	}
	if _, err = c.store.Put(ctx, tableIDKey(id), []byte(tableKey(db.ID, meta.Name))); err != nil {
		return nil, err
	}
	meta.Version = seq
	return &meta, nil
}

func (c *CatalogMeta) decodeTable(ctx context.Context, key string, v SeqV) (*TableMeta, error) {
	meta := &TableMeta{}
	if err := json.Unmarshal(v.Value, meta); err != nil {
		return nil, moerr.NewInternalError(ctx, "decode table %s: %v", key, err)
	}
	meta.Version = v.Seq
	return meta, nil
}

func (c *CatalogMeta) GetTable(ctx context.Context, database, name string) (*TableMeta, error) {
	db, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	key := tableKey(db.ID, name)
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, moerr.NewUnknownTable(ctx, "Unknown table '%s'", name)
	}
	return c.decodeTable(ctx, key, v)
}

func (c *CatalogMeta) GetTableByID(ctx context.Context, id uint64) (*TableMeta, error) {
	ref, ok, err := c.store.Get(ctx, tableIDKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, moerr.NewUnknownTable(ctx, "Unknown table id '%d'", id)
	}
	key := string(ref.Value)
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, moerr.NewUnknownTable(ctx, "Unknown table id '%d'", id)
	}
	return c.decodeTable(ctx, key, v)
}

func (c *CatalogMeta) ListTables(ctx context.Context, database string) ([]*TableMeta, error) {
	db, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	prefix := tableKey(db.ID, "")
	kvs, err := c.store.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	metas := make([]*TableMeta, 0, len(kvs))
	for _, kv := range kvs {
		if strings.Contains(kv.Key[len(prefix):], "/") {
			continue
		}
		meta, err := c.decodeTable(ctx, kv.Key, kv.SeqV)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// DropTable removes the table and returns what was dropped, nil when
// ifExists and the table is missing.
func (c *CatalogMeta) DropTable(ctx context.Context, database, name string, ifExists bool) (*TableMeta, error) {
	meta, err := c.GetTable(ctx, database, name)
	if err != nil {
		if ifExists && moerr.IsMoErrCode(err, moerr.ErrUnknownTable) {
			return nil, nil
		}
		return nil, err
	}
	if _, err = c.store.Delete(ctx, tableKey(meta.DatabaseID, name)); err != nil {
		return nil, err
	}
	if _, err = c.store.Delete(ctx, tableIDKey(meta.ID)); err != nil {
		return nil, err
	}
	return meta, nil
}

// UpsertTableOption sets one option of the table at version. It fails with
// ErrConflict when the table moved past version, and returns the new one.
func (c *CatalogMeta) UpsertTableOption(ctx context.Context, id, version uint64, key, value string) (uint64, error) {
	meta, err := c.GetTableByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if meta.Version != version {
		return 0, moerr.NewConflict(ctx, "table %s.%s version %d, expected %d", meta.Database, meta.Name, meta.Version, version)
	}
	if meta.Options == nil {
		meta.Options = make(map[string]string)
	}
	meta.Options[key] = value
	data, err := json.Marshal(meta)
	if err != nil {
		return 0, moerr.ConvertGoError(ctx, err)
	}
	seq, err := c.store.PutIf(ctx, tableKey(meta.DatabaseID, meta.Name), data, version)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
