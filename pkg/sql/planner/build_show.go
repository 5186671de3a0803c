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

package planner

import (
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// SHOW statements are rewritten into SELECTs over the system tables.

func (b *builder) buildShowTables(s *parsers.ShowTables) (plan.Plan, error) {
	db := s.Database
	if db == "" {
		db = b.cc.GetCurrentDatabase()
	}
	if _, err := b.cc.GetCatalog().GetDatabase(b.ctx, db); err != nil {
		return nil, moerr.NewUnknownDatabase(b.ctx, "Unknown database '%s'", db)
	}
	sql := fmt.Sprintf("SELECT name AS %s FROM system.tables WHERE database = %s",
		quoteIdent("Tables_in_"+db), quoteString(db))
	if s.Filter != nil {
		sql += fmt.Sprintf(" AND (%s)", s.Filter)
	}
	sql += " ORDER BY name"
	sel, err := b.buildRewritten(sql)
	if err != nil {
		return nil, err
	}
	return &plan.ShowTablesPlan{Select: sel}, nil
}

func (b *builder) buildShowDatabases(s *parsers.ShowDatabases) (plan.Plan, error) {
	sql := "SELECT name AS `Database` FROM system.databases"
	if s.Filter != nil {
		sql += fmt.Sprintf(" WHERE %s", s.Filter)
	}
	sql += " ORDER BY name"
	sel, err := b.buildRewritten(sql)
	if err != nil {
		return nil, err
	}
	return &plan.ShowDatabasesPlan{Select: sel}, nil
}

func (b *builder) buildShowSettings() (plan.Plan, error) {
	sel, err := b.buildRewritten("SELECT name, value, default_value, description FROM system.settings ORDER BY name")
	if err != nil {
		return nil, err
	}
	return &plan.ShowSettingsPlan{Select: sel}, nil
}

func (b *builder) buildRewritten(sql string) (*plan.SelectPlan, error) {
	stmt, err := parsers.ParseOne(b.ctx, sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*parsers.Select)
	if !ok {
		return nil, moerr.NewInternalError(b.ctx, "rewritten statement %s is not a SELECT", sql)
	}
	return b.buildSelect(sel)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
