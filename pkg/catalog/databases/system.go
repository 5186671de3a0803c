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
	"github.com/matrixorigin/fusequery/pkg/catalog/tables"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// systemDatabase is the fixed, read only system database.
type systemDatabase struct {
	tables []catalog.Table
	byName map[string]catalog.Table
	byID   map[uint64]catalog.Table
}

func newSystemDatabase() *systemDatabase {
	db := &systemDatabase{
		byName: make(map[string]catalog.Table),
		byID:   make(map[uint64]catalog.Table),
	}
	for _, tbl := range tables.SystemTables() {
		db.tables = append(db.tables, tbl)
		db.byName[tbl.Name()] = tbl
		db.byID[tbl.GetTableInfo().ID] = tbl
	}
	return db
}

func (d *systemDatabase) Name() string   { return catalog.SystemDatabaseName }
func (d *systemDatabase) Engine() string { return catalog.SystemDatabaseEngine }
func (d *systemDatabase) IsSystem() bool { return true }

func (d *systemDatabase) GetTable(ctx context.Context, name string) (catalog.Table, error) {
	tbl, ok := d.byName[strings.ToLower(name)]
	if !ok {
		return nil, moerr.NewUnknownTable(ctx, "Unknown table '%s'", name)
	}
	return tbl, nil
}

func (d *systemDatabase) GetTables(context.Context) ([]catalog.Table, error) {
	return d.tables, nil
}

func (d *systemDatabase) CreateTable(ctx context.Context, p *plan.CreateTablePlan) error {
	return moerr.NewBadArguments(ctx, "cannot create table in system database")
}

func (d *systemDatabase) DropTable(ctx context.Context, p *plan.DropTablePlan) error {
	return moerr.NewBadArguments(ctx, "cannot drop table in system database")
}
