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

package fileservice

import (
	"context"
	"io"
	pathpkg "path"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// DataAccessor is the object store abstraction every table engine reads and
// writes through. Paths are slash separated keys relative to the backend root.
type DataAccessor interface {
	// Name is the backend label used in logs and metrics
	Name() string

	// Get reads the whole object at path
	Get(ctx context.Context, path string) ([]byte, error)

	// GetStream reads length bytes starting at offset.
	// A negative length reads to the end of the object.
	GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error)

	// Put writes the whole object. Readers observe either the previous
	// content or the new one, never a partial write.
	Put(ctx context.Context, path string, data []byte) error

	// List returns every object path starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes objects. Missing paths are ignored.
	Delete(ctx context.Context, paths ...string) error
}

// Accessor backend names.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendAzblob = "azblob"
)

// cleanPath normalizes p and rejects paths escaping the backend root.
func cleanPath(ctx context.Context, p string) (string, error) {
	if p == "" {
		return "", moerr.NewBadArguments(ctx, "empty path")
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", moerr.NewBadArguments(ctx, "invalid path %s", p)
		}
	}
	cleaned := strings.TrimPrefix(pathpkg.Clean("/"+p), "/")
	if cleaned == "" {
		return "", moerr.NewBadArguments(ctx, "invalid path %s", p)
	}
	return cleaned, nil
}

func checkRange(ctx context.Context, offset, length int64) error {
	if offset < 0 {
		return moerr.NewBadArguments(ctx, "negative offset %d", offset)
	}
	if length == 0 {
		return moerr.NewBadArguments(ctx, "zero length read")
	}
	return nil
}

// GetSize returns the object size, reading the object when the backend
// offers nothing cheaper.
func GetSize(ctx context.Context, da DataAccessor, path string) (int64, error) {
	if s, ok := da.(interface {
		Size(ctx context.Context, path string) (int64, error)
	}); ok {
		return s.Size(ctx, path)
	}
	data, err := da.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

type readCloser struct {
	r         io.Reader
	closeFunc func() error
}

var _ io.ReadCloser = new(readCloser)

func (r *readCloser) Read(data []byte) (int, error) {
	return r.r.Read(data)
}

func (r *readCloser) Close() error {
	return r.closeFunc()
}
