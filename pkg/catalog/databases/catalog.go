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

package databases

import (
	"context"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/catalog/tables"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse"
)

// Registries are the engines and table functions a catalog resolves
// names against.
type Registries struct {
	DatabaseEngines *catalog.DatabaseEngineRegistry
	TableEngines    *catalog.TableEngineRegistry
	TableFunctions  *catalog.TableFunctionRegistry
}

// NewRegistries registers the builtin engines and table functions.
func NewRegistries(meta *metastore.CatalogMeta, da fileservice.DataAccessor) (*Registries, error) {
	r := &Registries{
		DatabaseEngines: catalog.NewDatabaseEngineRegistry(),
		TableEngines:    catalog.NewTableEngineRegistry(),
		TableFunctions:  catalog.NewTableFunctionRegistry(),
	}
	err := multierr.Combine(
		r.TableEngines.Register(catalog.FuseTableEngine, fuse.NewEngine()),
		r.TableEngines.Register(catalog.MemoryTableEngine, tables.NewMemoryEngine()),
		r.TableEngines.Register(catalog.NullTableEngine, tables.NewNullEngine()),

		r.DatabaseEngines.Register(catalog.DefaultDatabaseEngine, &defaultEngine{meta: meta, engines: r.TableEngines}),
		r.DatabaseEngines.Register(catalog.GithubDatabaseEngine, &githubEngine{da: da}),

		r.TableFunctions.Register(tables.NumbersFunctionName, tables.NewNumbersFunction(tables.NumbersFunctionName)),
		r.TableFunctions.Register(tables.NumbersMTFunctionName, tables.NewNumbersFunction(tables.NumbersMTFunctionName)),
		r.TableFunctions.Register(tables.NumbersLocalFunctionName, tables.NewNumbersFunction(tables.NumbersLocalFunctionName)),
		r.TableFunctions.Register(fuse.HistoryFunctionName, fuse.NewHistoryFunction),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Catalog resolves databases from the metastore through their engines.
// The system database is built in and never stored.
type Catalog struct {
	meta       *metastore.CatalogMeta
	registries *Registries
	system     *systemDatabase
}

var _ catalog.Catalog = new(Catalog)

// NewCatalog creates the default database on first start.
func NewCatalog(ctx context.Context, meta *metastore.CatalogMeta, registries *Registries) (*Catalog, error) {
	c := &Catalog{
		meta:       meta,
		registries: registries,
		system:     newSystemDatabase(),
	}
	id, err := meta.CreateDatabase(ctx, metastore.DatabaseMeta{
		Name:   catalog.DefaultDatabaseName,
		Engine: catalog.DefaultDatabaseEngine,
	}, true)
	if err != nil {
		return nil, err
	}
	logutil.Info("catalog ready",
		zap.Uint64("default-database-id", id),
		zap.Strings("database-engines", registries.DatabaseEngines.Names()),
		zap.Strings("table-engines", registries.TableEngines.Names()))
	return c, nil
}

func isSystem(name string) bool {
	return strings.EqualFold(name, catalog.SystemDatabaseName)
}

func (c *Catalog) databaseEngine(ctx context.Context, name string) (catalog.DatabaseEngine, error) {
	engine, ok := c.registries.DatabaseEngines.Get(name)
	if !ok {
		return nil, moerr.NewBadArguments(ctx, "database engine %s is not supported", name)
	}
	return engine, nil
}

func (c *Catalog) open(ctx context.Context, meta *metastore.DatabaseMeta) (catalog.Database, error) {
	engine, err := c.databaseEngine(ctx, meta.Engine)
	if err != nil {
		return nil, err
	}
	return engine.Create(ctx, meta)
}

func (c *Catalog) GetDatabase(ctx context.Context, name string) (catalog.Database, error) {
	if isSystem(name) {
		return c.system, nil
	}
	meta, err := c.meta.GetDatabase(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.open(ctx, meta)
}

// GetDatabases lists system first, then the stored databases by name.
func (c *Catalog) GetDatabases(ctx context.Context) ([]catalog.Database, error) {
	metas, err := c.meta.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}
	dbs := make([]catalog.Database, 0, len(metas)+1)
	dbs = append(dbs, c.system)
	for _, meta := range metas {
		db, err := c.open(ctx, meta)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

func (c *Catalog) CreateDatabase(ctx context.Context, p *plan.CreateDatabasePlan) error {
	if isSystem(p.Database) {
		if p.IfNotExists {
			return nil
		}
		return moerr.NewAlreadyExists(ctx, "Database: '%s' already exists.", p.Database)
	}
	engine := p.Engine
	if engine == "" {
		engine = catalog.DefaultDatabaseEngine
	}
	if _, err := c.databaseEngine(ctx, engine); err != nil {
		return err
	}
	_, err := c.meta.CreateDatabase(ctx, metastore.DatabaseMeta{
		Name:    p.Database,
		Engine:  strings.ToUpper(engine),
		Options: p.Options,
	}, p.IfNotExists)
	return err
}

func (c *Catalog) DropDatabase(ctx context.Context, p *plan.DropDatabasePlan) error {
	if isSystem(p.Database) {
		return moerr.NewBadArguments(ctx, "cannot drop system database")
	}
	meta, err := c.meta.GetDatabase(ctx, p.Database)
	if err != nil {
		if p.IfExists && moerr.IsMoErrCode(err, moerr.ErrUnknownDatabase) {
			return nil
		}
		return err
	}
	dropped, err := c.meta.DropDatabase(ctx, p.Database, p.IfExists)
	if err != nil {
		return err
	}
	engine, err := c.databaseEngine(ctx, meta.Engine)
	if err != nil {
		return err
	}
	return engine.Drop(ctx, meta, dropped)
}

func (c *Catalog) GetTable(ctx context.Context, database, name string) (catalog.Table, error) {
	db, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	return db.GetTable(ctx, name)
}

func (c *Catalog) GetTableByID(ctx context.Context, id uint64) (catalog.Table, error) {
	if tbl, ok := c.system.byID[id]; ok {
		return tbl, nil
	}
	meta, err := c.meta.GetTableByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.GetTable(ctx, meta.Database, meta.Name)
}

func (c *Catalog) CreateTable(ctx context.Context, p *plan.CreateTablePlan) error {
	db, err := c.GetDatabase(ctx, p.Database)
	if err != nil {
		return err
	}
	return db.CreateTable(ctx, p)
}

func (c *Catalog) DropTable(ctx context.Context, p *plan.DropTablePlan) error {
	db, err := c.GetDatabase(ctx, p.Database)
	if err != nil {
		return err
	}
	return db.DropTable(ctx, p)
}

func (c *Catalog) UpsertTableOption(ctx context.Context, id, version uint64, key, value string) (uint64, error) {
	return c.meta.UpsertTableOption(ctx, id, version, key, value)
}

func (c *Catalog) GetTableFunction(ctx context.Context, name string, args []types.DataValue) (catalog.Table, error) {
	fn, ok := c.registries.TableFunctions.Get(name)
	if !ok {
		return nil, moerr.NewUnknownTable(ctx, "Unknown table function '%s'", name)
	}
	return fn(ctx, args)
}

func (c *Catalog) GetEngines() []catalog.EngineDesc {
	var engines []catalog.EngineDesc
	for _, name := range c.registries.DatabaseEngines.Names() {
		e, _ := c.registries.DatabaseEngines.Get(name)
		engines = append(engines, catalog.EngineDesc{Name: name, Description: e.Description(), Kind: "database"})
	}
	for _, name := range c.registries.TableEngines.Names() {
		e, _ := c.registries.TableEngines.Get(name)
		engines = append(engines, catalog.EngineDesc{Name: name, Description: e.Description(), Kind: "table"})
	}
	return engines
}
