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
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/multierr"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// seqKey holds the last sequence handed out. It sorts before every
// metadata key and is hidden from scans.
var seqKey = []byte("\x00seq")

// PebbleStore persists metadata in a local pebble database. Every value is
// stored behind an 8 byte big endian sequence.
type PebbleStore struct {
	// serializes writers so compare and set stays atomic
	sync.Mutex
	db  *pebble.DB
	seq uint64
}

var _ Store = new(PebbleStore)

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, moerr.NewStorageIONoCtx("open meta store %s: %v", dir, err)
	}
	s := &PebbleStore{db: db}
	v, ok, err := s.getRaw(seqKey)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	if ok {
		s.seq = binary.BigEndian.Uint64(v)
	}
	return s, nil
}

func (s *PebbleStore) getRaw(k []byte) ([]byte, bool, error) {
	v, c, err := s.db.Get(k)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, moerr.NewStorageIONoCtx("%v", err)
	}
	r := make([]byte, len(v))
	copy(r, v)
	return r, true, c.Close()
}

func decodeSeqV(raw []byte) (SeqV, error) {
	if len(raw) < 8 {
		return SeqV{}, moerr.NewInternalErrorNoCtx("corrupted meta value")
	}
	return SeqV{Seq: binary.BigEndian.Uint64(raw), Value: raw[8:]}, nil
}

func (s *PebbleStore) Get(ctx context.Context, key string) (SeqV, bool, error) {
	raw, ok, err := s.getRaw([]byte(key))
	if err != nil || !ok {
		return SeqV{}, false, err
	}
	v, err := decodeSeqV(raw)
	return v, err == nil, err
}

func (s *PebbleStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	s.Lock()
	defer s.Unlock()
	return s.set(key, value)
}

func (s *PebbleStore) PutIf(ctx context.Context, key string, value []byte, seq uint64) (uint64, error) {
	s.Lock()
	defer s.Unlock()
	cur, ok, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		cur.Seq = 0
	}
	if cur.Seq != seq {
		return 0, seqMismatch(key, seq, cur.Seq)
	}
	return s.set(key, value)
}

func (s *PebbleStore) set(key string, value []byte) (uint64, error) {
	next := s.seq + 1
	raw := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(raw, next)
	copy(raw[8:], value)

	b := s.db.NewBatch()
	if err := b.Set([]byte(key), raw, nil); err != nil {
		return 0, multierr.Append(moerr.NewStorageIONoCtx("%v", err), b.Close())
	}
	if err := b.Set(seqKey, raw[:8], nil); err != nil {
		return 0, multierr.Append(moerr.NewStorageIONoCtx("%v", err), b.Close())
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, moerr.NewStorageIONoCtx("%v", err)
	}
	s.seq = next
	return next, nil
}

func (s *PebbleStore) Delete(ctx context.Context, key string) (bool, error) {
	s.Lock()
	defer s.Unlock()
	_, ok, err := s.getRaw([]byte(key))
	if err != nil || !ok {
		return false, err
	}
	if err = s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return false, moerr.NewStorageIONoCtx("%v", err)
	}
	return true, nil
}

func (s *PebbleStore) Scan(ctx context.Context, prefix string) ([]KV, error) {
	opts := &pebble.IterOptions{LowerBound: []byte(prefix)}
	if prefix != "" {
		opts.UpperBound = upperBound([]byte(prefix))
	}
	itr := s.db.NewIter(opts)
	var kvs []KV
	for itr.First(); itr.Valid(); itr.Next() {
		if string(itr.Key()) == string(seqKey) {
			continue
		}
		raw := make([]byte, len(itr.Value()))
		copy(raw, itr.Value())
		v, err := decodeSeqV(raw)
		if err != nil {
			return nil, multierr.Append(err, itr.Close())
		}
		kvs = append(kvs, KV{Key: string(itr.Key()), SeqV: v})
	}
	if err := itr.Close(); err != nil {
		return nil, moerr.NewStorageIONoCtx("%v", err)
	}
	return kvs, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func upperBound(k []byte) []byte {
	u := make([]byte, len(k))
	copy(u, k)
	for i := len(u) - 1; i >= 0; i-- {
		u[i] = u[i] + 1
		if u[i] != 0 {
			return u[:i+1]
		}
	}
	return nil
}
