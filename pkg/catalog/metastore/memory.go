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

package metastore

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/google/btree"
)

type memItem struct {
	key string
	SeqV
}

func (m *memItem) less(than *memItem) bool {
	return m.key < than.key
}

// MemoryStore keeps metadata in an ordered in-process tree.
type MemoryStore struct {
	sync.Mutex
	tree *btree.BTreeG[*memItem]
	seq  uint64
}

var _ Store = new(MemoryStore)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tree: btree.NewG(4, (*memItem).less),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (SeqV, bool, error) {
	m.Lock()
	defer m.Unlock()
	item, ok := m.tree.Get(&memItem{key: key})
	if !ok {
		return SeqV{}, false, nil
	}
	return SeqV{Seq: item.Seq, Value: bytes.Clone(item.Value)}, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	m.Lock()
	defer m.Unlock()
	return m.set(key, value), nil
}

func (m *MemoryStore) PutIf(ctx context.Context, key string, value []byte, seq uint64) (uint64, error) {
	m.Lock()
	defer m.Unlock()
	var cur uint64
	if item, ok := m.tree.Get(&memItem{key: key}); ok {
		cur = item.Seq
	}
	if cur != seq {
		return 0, seqMismatch(key, seq, cur)
	}
	return m.set(key, value), nil
}

func (m *MemoryStore) set(key string, value []byte) uint64 {
	m.seq++
	m.tree.ReplaceOrInsert(&memItem{
		key:  key,
		SeqV: SeqV{Seq: m.seq, Value: bytes.Clone(value)},
	})
	return m.seq
}

func (m *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	m.Lock()
	defer m.Unlock()
	_, ok := m.tree.Delete(&memItem{key: key})
	return ok, nil
}

func (m *MemoryStore) Scan(ctx context.Context, prefix string) ([]KV, error) {
	m.Lock()
	defer m.Unlock()
	var kvs []KV
	m.tree.AscendGreaterOrEqual(&memItem{key: prefix}, func(item *memItem) bool {
		if !strings.HasPrefix(item.key, prefix) {
			return false
		}
		kvs = append(kvs, KV{
			Key:  item.key,
			SeqV: SeqV{Seq: item.Seq, Value: bytes.Clone(item.Value)},
		})
		return true
	})
	return kvs, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
