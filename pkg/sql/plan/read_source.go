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

package plan

import (
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/types"
)

// Partition is a unit of read work, stolen by source workers from the
// query's partition queue.
type Partition struct {
	// object location for fuse blocks, an engine specific key otherwise
	Name    string
	Version uint64
	// row range [Begin, End)
	Begin    uint64
	End      uint64
	ByteSize uint64
}

func (p Partition) Rows() uint64 {
	return p.End - p.Begin
}

type Statistics struct {
	ReadRows  uint64
	ReadBytes uint64
	// partitions left after pruning, and before
	PartitionsScanned int
	PartitionsTotal   int
	IsExact           bool
}

// PushDowns carry what the plan above a source lets the table skip.
type PushDowns struct {
	// indexes into the table schema, nil reads every column
	Projection []int
	// conjuncts over table columns, evaluated for pruning only
	Filters []Expr
	// 0 means no limit
	Limit int
}

// ReadDataSourcePlan reads one table or table function. Parts and
// Statistics are filled when the pipeline is built.
type ReadDataSourcePlan struct {
	Database     string
	Table        string
	TableID      uint64
	TableVersion uint64
	TableSchema  *types.Schema
	TableArgs    []types.DataValue
	PushDowns    PushDowns
	Statistics   Statistics
	Parts        []Partition
}

func (p *ReadDataSourcePlan) Name() string { return "ReadDataSourcePlan" }

// Schema is the table schema narrowed by the projection push down.
func (p *ReadDataSourcePlan) Schema() *types.Schema {
	if p.PushDowns.Projection == nil {
		return p.TableSchema
	}
	return p.TableSchema.Project(p.PushDowns.Projection)
}

func (p *ReadDataSourcePlan) IsTableFunction() bool {
	return p.TableArgs != nil
}

func (p *ReadDataSourcePlan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ReadDataSource: scan schema: %s, table: %s.%s", p.Schema(), p.Database, p.Table)
	if len(p.TableArgs) > 0 {
		args := make([]string, len(p.TableArgs))
		for i, a := range p.TableArgs {
			args[i] = a.String()
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}
	fmt.Fprintf(&b, ", partitions_scanned: %d, partitions_total: %d", p.Statistics.PartitionsScanned, p.Statistics.PartitionsTotal)
	if len(p.PushDowns.Filters) > 0 {
		fmt.Fprintf(&b, ", push_downs: [filters: [%s]", joinExprs(p.PushDowns.Filters))
		if p.PushDowns.Limit > 0 {
			fmt.Fprintf(&b, ", limit: %d", p.PushDowns.Limit)
		}
		b.WriteString("]")
	} else if p.PushDowns.Limit > 0 {
		fmt.Fprintf(&b, ", push_downs: [limit: %d]", p.PushDowns.Limit)
	}
	return b.String()
}
