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

package processors

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// LimitTransform skips offset rows and stops after limit rows. It runs
// after the ways are merged.
type LimitTransform struct {
	transform
	limit  int
	offset int
}

func NewLimitTransform(limit, offset int) *LimitTransform {
	return &LimitTransform{limit: limit, offset: offset}
}

func (p *LimitTransform) Name() string { return "LimitTransform" }

func (p *LimitTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	skip, remain := p.offset, p.limit
	return streams.NewFuncStream(input.Schema(), func(ctx context.Context) (*batch.Batch, error) {
		for remain > 0 {
			bat, err := input.Next(ctx)
			if err != nil || bat == nil {
				return nil, err
			}
			n := bat.RowCount()
			if skip >= n {
				skip -= n
				continue
			}
			start := skip
			skip = 0
			length := n - start
			if length > remain {
				length = remain
			}
			remain -= length
			if start == 0 && length == n {
				return bat, nil
			}
			return bat.Slice(start, length)
		}
		return nil, nil
	}), nil
}
