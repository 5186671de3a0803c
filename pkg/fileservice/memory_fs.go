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
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/btree"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// MemoryFS keeps objects in an ordered in-process tree
type MemoryFS struct {
	sync.RWMutex
	tree *btree.BTreeG[*memFile]
}

type memFile struct {
	path string
	data []byte
}

func (m *memFile) less(than *memFile) bool {
	return m.path < than.path
}

var _ DataAccessor = new(MemoryFS)

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		tree: btree.NewG(2, (*memFile).less),
	}
}

func (m *MemoryFS) Name() string {
	return BackendMemory
}

func (m *MemoryFS) Get(ctx context.Context, path string) ([]byte, error) {
	file, err := m.lookup(ctx, path)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(file.data), nil
}

func (m *MemoryFS) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	if err := checkRange(ctx, offset, length); err != nil {
		return nil, err
	}
	file, err := m.lookup(ctx, path)
	if err != nil {
		return nil, err
	}
	data := file.data
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	data = data[offset:]
	if length > 0 && length < int64(len(data)) {
		data = data[:length]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryFS) Size(ctx context.Context, path string) (int64, error) {
	file, err := m.lookup(ctx, path)
	if err != nil {
		return 0, err
	}
	return int64(len(file.data)), nil
}

func (m *MemoryFS) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	path, err := cleanPath(ctx, path)
	if err != nil {
		return err
	}
	// stored slices are never mutated, so swapping the entry is atomic for readers
	file := &memFile{
		path: path,
		data: bytes.Clone(data),
	}
	m.Lock()
	defer m.Unlock()
	m.tree.ReplaceOrInsert(file)
	return nil
}

func (m *MemoryFS) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	m.RLock()
	defer m.RUnlock()
	var ret []string
	m.tree.AscendGreaterOrEqual(&memFile{path: prefix}, func(item *memFile) bool {
		if !strings.HasPrefix(item.path, prefix) {
			return false
		}
		ret = append(ret, item.path)
		return true
	})
	return ret, nil
}

func (m *MemoryFS) Delete(ctx context.Context, paths ...string) error {
	m.Lock()
	defer m.Unlock()
	for _, path := range paths {
		path, err := cleanPath(ctx, path)
		if err != nil {
			return err
		}
		m.tree.Delete(&memFile{path: path})
	}
	return nil
}

func (m *MemoryFS) lookup(ctx context.Context, path string) (*memFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	path, err := cleanPath(ctx, path)
	if err != nil {
		return nil, err
	}
	m.RLock()
	defer m.RUnlock()
	file, ok := m.tree.Get(&memFile{path: path})
	if !ok {
		return nil, moerr.NewNotFound(ctx, "object %s not found", path)
	}
	return file, nil
}
