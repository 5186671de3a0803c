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

package blockio

import (
	"encoding/hex"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

const (
	FuseBlockPrefix    = "_b"
	FuseSegmentPrefix  = "_sg"
	FuseSnapshotPrefix = "_ss"

	blockSuffix = ".parquet"
)

// TablePrefix is the root of every object of a table.
func TablePrefix(dbID, tableID uint64) string {
	return fmt.Sprintf("%d/%d", dbID, tableID)
}

// newObjectName is a uuid v4 in its simple, hyphen-less form.
func newObjectName() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func GenBlockLocation(tbl string) string {
	return path.Join(tbl, FuseBlockPrefix, newObjectName()+blockSuffix)
}

func GenSegmentLocation(tbl string) string {
	return path.Join(tbl, FuseSegmentPrefix, newObjectName())
}

// GenSnapshotLocation places a caller named snapshot.
func GenSnapshotLocation(tbl, name string) string {
	return path.Join(tbl, FuseSnapshotPrefix, name)
}

// SnapshotName is <version>_<uuid>. The version orders snapshots of a
// table, the uuid keeps racing committers apart.
func SnapshotName(version uint64) string {
	return fmt.Sprintf("%d_%s", version, newObjectName())
}

// SnapshotVersion parses the version back out of a snapshot location.
func SnapshotVersion(location string) (uint64, error) {
	name := path.Base(location)
	idx := strings.IndexByte(name, '_')
	if idx <= 0 || path.Base(path.Dir(location)) != FuseSnapshotPrefix {
		return 0, moerr.NewInternalErrorNoCtx("invalid snapshot location %s", location)
	}
	v, err := strconv.ParseUint(name[:idx], 10, 64)
	if err != nil {
		return 0, moerr.NewInternalErrorNoCtx("invalid snapshot location %s", location)
	}
	return v, nil
}
