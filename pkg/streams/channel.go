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

// Result is one message of a channel stream: a block or an error
type Result struct {
	Batch *batch.Batch
	Err   error
}

type channelStream struct {
	schema *types.Schema
	ch     <-chan Result
	done   bool
}

// NewChannelStream reads blocks sent by producers until ch is closed.
// The first error received ends the stream.
func NewChannelStream(schema *types.Schema, ch <-chan Result) Stream {
	return &channelStream{
		schema: schema,
		ch:     ch,
	}
}

func (s *channelStream) Schema() *types.Schema {
	return s.schema
}

func (s *channelStream) Next(ctx context.Context) (*batch.Batch, error) {
	if s.done {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		s.done = true
		return nil, moerr.ConvertGoError(ctx, ctx.Err())
	case r, ok := <-s.ch:
		if !ok {
			s.done = true
			return nil, nil
		}
		if r.Err != nil {
			s.done = true
			return nil, r.Err
		}
		return r.Batch, nil
	}
}

// Send delivers r unless ctx is done first
func Send(ctx context.Context, ch chan<- Result, r Result) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- r:
		return true
	}
}
