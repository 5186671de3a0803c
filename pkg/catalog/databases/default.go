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

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// forgetter is implemented by table engines holding state per table.
type forgetter interface {
	Forget(info *catalog.TableInfo)
}

// defaultEngine backs DEFAULT databases: tables live in the metastore
// and open through the table engine registry.
type defaultEngine struct {
	meta    *metastore.CatalogMeta
	engines *catalog.TableEngineRegistry
}

func (e *defaultEngine) Description() string {
	return "The default database engine, tables are kept in the metastore"
}

func (e *defaultEngine) Create(ctx context.Context, meta *metastore.DatabaseMeta) (catalog.Database, error) {
	return &defaultDatabase{engine: e, meta: meta}, nil
}

func (e *defaultEngine) Drop(ctx context.Context, meta *metastore.DatabaseMeta, tables []*metastore.TableMeta) error {
	for _, tbl := range tables {
		e.forget(tbl)
	}
	return nil
}

func (e *defaultEngine) forget(meta *metastore.TableMeta) {
	if engine, ok := e.engines.Get(meta.Engine); ok {
		if f, ok := engine.(forgetter); ok {
			f.Forget(catalog.TableInfoFromMeta(meta))
		}
	}
}

func (e *defaultEngine) open(ctx context.Context, meta *metastore.TableMeta) (catalog.Table, error) {
	engine, ok := e.engines.Get(meta.Engine)
	if !ok {
		return nil, moerr.NewInternalError(ctx, "table %s.%s has unknown engine %s", meta.Database, meta.Name, meta.Engine)
	}
	return engine.Open(catalog.TableInfoFromMeta(meta))
}

type defaultDatabase struct {
	engine *defaultEngine
	meta   *metastore.DatabaseMeta
}

func (d *defaultDatabase) Name() string   { return d.meta.Name }
func (d *defaultDatabase) Engine() string { return d.meta.Engine }
func (d *defaultDatabase) IsSystem() bool { return false }

func (d *defaultDatabase) GetTable(ctx context.Context, name string) (catalog.Table, error) {
	meta, err := d.engine.meta.GetTable(ctx, d.meta.Name, name)
	if err != nil {
		return nil, err
	}
	return d.engine.open(ctx, meta)
}

func (d *defaultDatabase) GetTables(ctx context.Context) ([]catalog.Table, error) {
	metas, err := d.engine.meta.ListTables(ctx, d.meta.Name)
	if err != nil {
		return nil, err
	}
	tables := make([]catalog.Table, 0, len(metas))
	for _, meta := range metas {
		tbl, err := d.engine.open(ctx, meta)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}

func (d *defaultDatabase) CreateTable(ctx context.Context, p *plan.CreateTablePlan) error {
	engine := p.Engine
	if engine == "" {
		engine = catalog.FuseTableEngine
	}
	if _, ok := d.engine.engines.Get(engine); !ok {
		return moerr.NewBadArguments(ctx, "table engine %s is not supported", engine)
	}
	_, err := d.engine.meta.CreateTable(ctx, metastore.TableMeta{
		Database: d.meta.Name,
		Name:     p.Table,
		Schema:   p.TableSchema,
		Engine:   strings.ToUpper(engine),
		Options:  p.Options,
	}, p.IfNotExists)
	return err
}

func (d *defaultDatabase) DropTable(ctx context.Context, p *plan.DropTablePlan) error {
	meta, err := d.engine.meta.DropTable(ctx, d.meta.Name, p.Table, p.IfExists)
	if err != nil || meta == nil {
		return err
	}
	d.engine.forget(meta)
	return nil
}
