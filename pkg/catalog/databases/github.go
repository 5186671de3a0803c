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
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

const (
	githubRoot = "github"
	// GithubOwnerOption names the owner when it differs from the database name.
	GithubOwnerOption = "owner"

	githubRepoEngine = "GithubRepo"
)

// githubEngine exposes github/<owner>/<repo>.json objects of the data
// accessor as read only tables, one database per owner.
type githubEngine struct {
	da fileservice.DataAccessor
}

func (e *githubEngine) Description() string {
	return "The GITHUB database engine, read only tables over github/<owner>/<repo>.json"
}

func (e *githubEngine) Create(ctx context.Context, meta *metastore.DatabaseMeta) (catalog.Database, error) {
	owner := meta.Name
	if o, ok := meta.Options[GithubOwnerOption]; ok && o != "" {
		owner = o
	}
	return &githubDatabase{da: e.da, meta: meta, owner: owner}, nil
}

func (e *githubEngine) Drop(context.Context, *metastore.DatabaseMeta, []*metastore.TableMeta) error {
	return nil
}

type githubDatabase struct {
	da    fileservice.DataAccessor
	meta  *metastore.DatabaseMeta
	owner string
}

func (d *githubDatabase) Name() string   { return d.meta.Name }
func (d *githubDatabase) Engine() string { return d.meta.Engine }
func (d *githubDatabase) IsSystem() bool { return false }

func (d *githubDatabase) location(repo string) string {
	return path.Join(githubRoot, d.owner, repo+".json")
}

func (d *githubDatabase) GetTable(ctx context.Context, name string) (catalog.Table, error) {
	data, err := d.da.Get(ctx, d.location(name))
	if err != nil {
		if moerr.IsMoErrCode(err, moerr.ErrNotFound) {
			return nil, moerr.NewUnknownTable(ctx, "Unknown table '%s'", name)
		}
		return nil, err
	}
	return newGithubTable(ctx, d.meta.Name, name, data)
}

func (d *githubDatabase) GetTables(ctx context.Context) ([]catalog.Table, error) {
	prefix := path.Join(githubRoot, d.owner) + "/"
	paths, err := d.da.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var tables []catalog.Table
	for _, p := range paths {
		name := strings.TrimPrefix(p, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		tbl, err := d.GetTable(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}

func (d *githubDatabase) CreateTable(ctx context.Context, p *plan.CreateTablePlan) error {
	return moerr.NewBadArguments(ctx, "GITHUB database %s is read only", d.meta.Name)
}

func (d *githubDatabase) DropTable(ctx context.Context, p *plan.DropTablePlan) error {
	return moerr.NewBadArguments(ctx, "GITHUB database %s is read only", d.meta.Name)
}

// githubTable holds the decoded records. Every field is a nullable string
// column, ordered by name.
type githubTable struct {
	catalog.TableBase
	rows [][]types.DataValue
}

func newGithubTable(ctx context.Context, database, name string, data []byte) (*githubTable, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, moerr.NewBadArguments(ctx, "github table %s.%s: %v", database, name, err)
	}
	keys := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make([]types.Field, len(names))
	for i, n := range names {
		fields[i] = types.NewField(n, types.T_varchar, true)
	}
	rows := make([][]types.DataValue, len(records))
	for i, r := range records {
		row := make([]types.DataValue, len(names))
		for j, n := range names {
			switch v := r[n].(type) {
			case nil:
				row[j] = types.NewNull(types.T_varchar)
			case string:
				row[j] = types.NewString(v)
			default:
				row[j] = types.NewString(fmt.Sprint(v))
			}
		}
		rows[i] = row
	}
	info := catalog.NewTableInfo(database, name, types.NewSchema(fields...), githubRepoEngine)
	return &githubTable{TableBase: catalog.TableBase{Info: info}, rows: rows}, nil
}

func (t *githubTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	stats, parts := catalog.OnePartition(t.Info, uint64(len(t.rows)), 0)
	return stats, parts, nil
}

func (t *githubTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	projection := source.PushDowns.Projection
	return catalog.NewPartitionStream(tctx, source.Schema(), func(ctx context.Context, _ plan.Partition) ([]*batch.Batch, error) {
		bat, err := batch.FromValues(t.Schema(), t.rows)
		if err != nil {
			return nil, err
		}
		if projection != nil {
			bat = bat.Project(projection)
		}
		return []*batch.Batch{bat}, nil
	}), nil
}
