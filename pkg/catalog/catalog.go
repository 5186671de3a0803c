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
	"fmt"

	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

const (
	DefaultDatabaseName = "default"
	SystemDatabaseName  = "system"

	DefaultDatabaseEngine = "DEFAULT"
	SystemDatabaseEngine  = "SYSTEM"
	GithubDatabaseEngine  = "GITHUB"

	FuseTableEngine   = "FUSE"
	MemoryTableEngine = "MEMORY"
	NullTableEngine   = "NULL"
	SystemTableEngine = "SystemTable"
	TableFuncEngine   = "TableFunction"
)

// TableInfo identifies one version of a table. Two resolutions of the
// same table within a query share the same TableInfo.
type TableInfo struct {
	ID         uint64
	Version    uint64
	DatabaseID uint64
	// 'db'.'table'
	Desc     string
	Database string
	Name     string
	Schema   *types.Schema
	Engine   string
	Options  map[string]string
}

func NewTableInfo(database, name string, schema *types.Schema, engine string) *TableInfo {
	return &TableInfo{
		Desc:     fmt.Sprintf("'%s'.'%s'", database, name),
		Database: database,
		Name:     name,
		Schema:   schema,
		Engine:   engine,
		Options:  map[string]string{},
	}
}

// TableInfoFromMeta converts the persisted form.
func TableInfoFromMeta(meta *metastore.TableMeta) *TableInfo {
	info := NewTableInfo(meta.Database, meta.Name, meta.Schema, meta.Engine)
	info.ID = meta.ID
	info.Version = meta.Version
	info.DatabaseID = meta.DatabaseID
	for k, v := range meta.Options {
		info.Options[k] = v
	}
	return info
}

func (ti *TableInfo) Option(key string) (string, bool) {
	v, ok := ti.Options[key]
	return v, ok
}

type Table interface {
	Name() string
	Database() string
	Engine() string
	Schema() *types.Schema
	GetTableInfo() *TableInfo

	// ReadPartitions splits what push reads into partitions and
	// estimates the statistics of the read.
	ReadPartitions(ctx context.Context, tctx TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error)
	// Read returns a stream stealing partitions from tctx until none are left.
	Read(ctx context.Context, tctx TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error)

	// AppendData writes input and returns the append log entries.
	AppendData(ctx context.Context, tctx TableContext, input streams.Stream) (streams.Stream, error)
	// Commit makes the entries of AppendData visible.
	Commit(ctx context.Context, tctx TableContext, logs []*batch.Batch, overwrite bool) error
	Truncate(ctx context.Context, tctx TableContext, purge bool) error
}

type Database interface {
	Name() string
	Engine() string
	IsSystem() bool

	GetTable(ctx context.Context, name string) (Table, error)
	GetTables(ctx context.Context) ([]Table, error)
	CreateTable(ctx context.Context, p *plan.CreateTablePlan) error
	DropTable(ctx context.Context, p *plan.DropTablePlan) error
}

type Catalog interface {
	GetDatabase(ctx context.Context, name string) (Database, error)
	GetDatabases(ctx context.Context) ([]Database, error)
	CreateDatabase(ctx context.Context, p *plan.CreateDatabasePlan) error
	DropDatabase(ctx context.Context, p *plan.DropDatabasePlan) error

	GetTable(ctx context.Context, database, name string) (Table, error)
	GetTableByID(ctx context.Context, id uint64) (Table, error)
	CreateTable(ctx context.Context, p *plan.CreateTablePlan) error
	DropTable(ctx context.Context, p *plan.DropTablePlan) error
	// UpsertTableOption sets an option of the table at version and
	// returns the new version, ErrConflict when version is stale.
	UpsertTableOption(ctx context.Context, id, version uint64, key, value string) (uint64, error)

	GetTableFunction(ctx context.Context, name string, args []types.DataValue) (Table, error)
	// GetEngines describes the registered engines for system.engines.
	GetEngines() []EngineDesc
}

type EngineDesc struct {
	Name        string
	Description string
	// database or table
	Kind string
}

// DatabaseEngine creates the Database objects of one engine.
type DatabaseEngine interface {
	Description() string
	// Create materializes a database stored in meta. Called for user
	// created databases and when the catalog loads.
	Create(ctx context.Context, meta *metastore.DatabaseMeta) (Database, error)
	// Drop releases what the engine keeps for the database.
	Drop(ctx context.Context, meta *metastore.DatabaseMeta, tables []*metastore.TableMeta) error
}

// TableEngine opens tables of one engine from their TableInfo.
type TableEngine interface {
	Description() string
	Open(info *TableInfo) (Table, error)
}

type TableEngineFunc struct {
	Desc     string
	OpenFunc func(info *TableInfo) (Table, error)
}

func (f TableEngineFunc) Description() string                 { return f.Desc }
func (f TableEngineFunc) Open(info *TableInfo) (Table, error) { return f.OpenFunc(info) }

// TableFunction builds a table from the arguments of a call in FROM.
type TableFunction func(ctx context.Context, args []types.DataValue) (Table, error)
