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

package streams

import (
	"context"
	"sync/atomic"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

type castStream struct {
	input  Stream
	target *types.Schema
}

// NewCastStream casts every block of input to target
func NewCastStream(input Stream, target *types.Schema) Stream {
	return &castStream{
		input:  input,
		target: target,
	}
}

func (s *castStream) Schema() *types.Schema {
	return s.target
}

func (s *castStream) Next(ctx context.Context) (*batch.Batch, error) {
	bat, err := s.input.Next(ctx)
	if err != nil || bat == nil {
		return nil, err
	}
	return bat.CastTo(ctx, s.target)
}

// AbortHandle stops an abortable stream from another goroutine
type AbortHandle struct {
	aborted atomic.Bool
}

func (h *AbortHandle) Abort() {
	h.aborted.Store(true)
}

func (h *AbortHandle) IsAborted() bool {
	return h.aborted.Load()
}

type abortableStream struct {
	input  Stream
	handle *AbortHandle
}

// NewAbortableStream wraps input so that Next fails with Aborted once the
// handle is aborted or ctx is done
func NewAbortableStream(input Stream) (Stream, *AbortHandle) {
	handle := new(AbortHandle)
	return &abortableStream{
		input:  input,
		handle: handle,
	}, handle
}

func (s *abortableStream) Schema() *types.Schema {
	return s.input.Schema()
}

func (s *abortableStream) Next(ctx context.Context) (*batch.Batch, error) {
	if s.handle.IsAborted() {
		return nil, moerr.NewAborted(ctx, "query aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	bat, err := s.input.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, moerr.ConvertGoError(ctx, ctx.Err())
		}
		return nil, err
	}
	if s.handle.IsAborted() {
		return nil, moerr.NewAborted(ctx, "query aborted")
	}
	return bat, nil
}

type progressStream struct {
	input    Stream
	callback func(rows, bytes int)
}

// NewProgressStream reports the rows and bytes of every block passing by
func NewProgressStream(input Stream, callback func(rows, bytes int)) Stream {
	return &progressStream{
		input:    input,
		callback: callback,
	}
}

func (s *progressStream) Schema() *types.Schema {
	return s.input.Schema()
}

func (s *progressStream) Next(ctx context.Context) (*batch.Batch, error) {
	bat, err := s.input.Next(ctx)
	if err == nil && bat != nil {
		s.callback(bat.RowCount(), bat.Size())
	}
	return bat, err
}

type limitStream struct {
	input  Stream
	remain int
}

// NewLimitStream stops after limit rows; the input is not pulled further
func NewLimitStream(input Stream, limit int) Stream {
	return &limitStream{
		input:  input,
		remain: limit,
	}
}

func (s *limitStream) Schema() *types.Schema {
	return s.input.Schema()
}

func (s *limitStream) Next(ctx context.Context) (*batch.Batch, error) {
	if s.remain <= 0 {
		return nil, nil
	}
	bat, err := s.input.Next(ctx)
	if err != nil || bat == nil {
		return nil, err
	}
	if bat.RowCount() > s.remain {
		bat, err = bat.Slice(0, s.remain)
		if err != nil {
			return nil, err
		}
	}
	s.remain -= bat.RowCount()
	return bat, nil
}

type skipEmptyStream struct {
	input Stream
}

// NewSkipEmptyStream drops zero row blocks
func NewSkipEmptyStream(input Stream) Stream {
	return &skipEmptyStream{input: input}
}

func (s *skipEmptyStream) Schema() *types.Schema {
	return s.input.Schema()
}

func (s *skipEmptyStream) Next(ctx context.Context) (*batch.Batch, error) {
	for {
		bat, err := s.input.Next(ctx)
		if err != nil || bat == nil {
			return nil, err
		}
		if !bat.IsEmpty() {
			return bat, nil
		}
	}
}

type mapStream struct {
	input  Stream
	schema *types.Schema
	fn     func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error)
}

// NewMapStream applies fn to every block; a nil result drops the block
func NewMapStream(input Stream, schema *types.Schema, fn func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error)) Stream {
	return &mapStream{
		input:  input,
		schema: schema,
		fn:     fn,
	}
}

func (s *mapStream) Schema() *types.Schema {
	return s.schema
}

func (s *mapStream) Next(ctx context.Context) (*batch.Batch, error) {
	for {
		bat, err := s.input.Next(ctx)
		if err != nil || bat == nil {
			return nil, err
		}
		out, err := s.fn(ctx, bat)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
}
