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
)

// ReaderAt serves random reads of one object with ranged GetStream calls
type ReaderAt struct {
	ctx  context.Context
	da   DataAccessor
	path string
	size int64
}

var _ io.ReaderAt = new(ReaderAt)

func NewReaderAt(ctx context.Context, da DataAccessor, path string, size int64) *ReaderAt {
	return &ReaderAt{
		ctx:  ctx,
		da:   da,
		path: path,
		size: size,
	}
}

func (r *ReaderAt) Size() int64 {
	return r.size
}

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want == 0 {
		return 0, nil
	}
	short := false
	if off+want > r.size {
		want = r.size - off
		short = true
	}
	rc, err := r.da.GetStream(r.ctx, r.path, off, want)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	n, err := io.ReadFull(rc, p[:want])
	if err != nil {
		return n, err
	}
	if short {
		return n, io.EOF
	}
	return n, nil
}
