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
	"context"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
)

// SeqV is a value with the sequence number of its last write. Sequence
// numbers grow across the whole store, a written key never has seq 0.
type SeqV struct {
	Seq   uint64
	Value []byte
}

type KV struct {
	Key string
	SeqV
}

// Store is the metadata key value store behind the catalog and users.
type Store interface {
	// Get returns ok=false for a missing key.
	Get(ctx context.Context, key string) (v SeqV, ok bool, err error)
	// Put writes unconditionally and returns the new sequence.
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	// PutIf writes only when the current sequence of key is seq, 0 meaning
	// the key must not exist. A mismatch fails with ErrConflict.
	PutIf(ctx context.Context, key string, value []byte, seq uint64) (uint64, error)
	// Delete returns whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Scan lists the keys under prefix in key order.
	Scan(ctx context.Context, prefix string) ([]KV, error)
	Close() error
}

// NewStore opens the backend selected by cfg.
func NewStore(ctx context.Context, cfg config.MetaConfig) (Store, error) {
	switch cfg.Backend {
	case config.MetaBackendMemory, "":
		return NewMemoryStore(), nil
	case config.MetaBackendPebble:
		return NewPebbleStore(cfg.DataDir)
	}
	return nil, moerr.NewBadArguments(ctx, "unknown meta backend: %s", cfg.Backend)
}

func seqMismatch(key string, expected, actual uint64) error {
	return moerr.NewConflictNoCtx("key %s: expected seq %d, got %d", key, expected, actual)
}
