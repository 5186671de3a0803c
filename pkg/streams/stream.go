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

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

// Stream is a lazy, non-restartable sequence of data blocks.
// Next returns (nil, nil) once the stream is exhausted.
type Stream interface {
	Schema() *types.Schema
	Next(ctx context.Context) (*batch.Batch, error)
}

// Collect drains s
func Collect(ctx context.Context, s Stream) ([]*batch.Batch, error) {
	var ret []*batch.Batch
	for {
		bat, err := s.Next(ctx)
		if err != nil {
			return ret, err
		}
		if bat == nil {
			return ret, nil
		}
		ret = append(ret, bat)
	}
}

// CollectOne drains s into a single block
func CollectOne(ctx context.Context, s Stream) (*batch.Batch, error) {
	bats, err := Collect(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(bats) == 1 {
		return bats[0], nil
	}
	return batch.Concat(s.Schema(), bats...)
}

type blocksStream struct {
	schema *types.Schema
	bats   []*batch.Batch
}

// NewBlocksStream yields bats in order
func NewBlocksStream(schema *types.Schema, bats ...*batch.Batch) Stream {
	return &blocksStream{
		schema: schema,
		bats:   bats,
	}
}

func NewOneBlockStream(bat *batch.Batch) Stream {
	return NewBlocksStream(bat.Schema(), bat)
}

func NewEmptyStream(schema *types.Schema) Stream {
	return NewBlocksStream(schema)
}

func (s *blocksStream) Schema() *types.Schema {
	return s.schema
}

func (s *blocksStream) Next(ctx context.Context) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	if len(s.bats) == 0 {
		return nil, nil
	}
	bat := s.bats[0]
	s.bats[0] = nil
	s.bats = s.bats[1:]
	return bat, nil
}

type funcStream struct {
	schema *types.Schema
	fn     func(ctx context.Context) (*batch.Batch, error)
	done   bool
}

// NewFuncStream pulls blocks from fn until it returns (nil, nil)
func NewFuncStream(schema *types.Schema, fn func(ctx context.Context) (*batch.Batch, error)) Stream {
	return &funcStream{
		schema: schema,
		fn:     fn,
	}
}

func (s *funcStream) Schema() *types.Schema {
	return s.schema
}

func (s *funcStream) Next(ctx context.Context) (*batch.Batch, error) {
	if s.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	bat, err := s.fn(ctx)
	if err != nil || bat == nil {
		s.done = true
	}
	return bat, err
}
