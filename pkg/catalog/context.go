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

	"github.com/matrixorigin/fusequery/pkg/common/runtime"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/users"
)

type SettingItem struct {
	Name    string
	Value   string
	Default string
	Desc    string
}

// TableContext is what tables and processors see of the running query.
type TableContext interface {
	GetID() string
	GetDataAccessor() fileservice.DataAccessor
	GetCatalog() Catalog
	GetUserManager() *users.UserMgr
	GetCurrentDatabase() string

	// TryGetPartitions pops at most n partitions, none once the queue is drained.
	TryGetPartitions(n int) []plan.Partition
	TrySetPartitions(parts []plan.Partition)
	GetProgressCallback() func(rows, bytes int)

	// TrySpawn runs fn on the query runtime.
	TrySpawn(fn func(ctx context.Context) error) (*runtime.TaskHandle, error)

	GetSettingItems() []SettingItem
	GetMaxThreads() int
	GetMaxBlockSize() int
	GetStorageReadBufferSize() int
}
