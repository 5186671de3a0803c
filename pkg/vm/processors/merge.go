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
	"sync/atomic"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// MergeProcessor drains every input on its own task and interleaves
// their blocks. A failing input ends the merged stream with its error.
// An ordered merge still drains in parallel but outputs the blocks of
// input i before those of input i+1.
type MergeProcessor struct {
	qctx    QueryContext
	inputs  []Processor
	ordered bool
}

func NewMergeProcessor(qctx QueryContext) *MergeProcessor {
	return &MergeProcessor{qctx: qctx}
}

func NewOrderedMergeProcessor(qctx QueryContext) *MergeProcessor {
	return &MergeProcessor{qctx: qctx, ordered: true}
}

func (p *MergeProcessor) Name() string { return "MergeProcessor" }

func (p *MergeProcessor) ConnectTo(input Processor) error {
	p.inputs = append(p.inputs, input)
	return nil
}

func (p *MergeProcessor) Inputs() []Processor { return p.inputs }

func (p *MergeProcessor) Execute(ctx context.Context) (streams.Stream, error) {
	switch len(p.inputs) {
	case 0:
		return nil, moerr.NewInternalError(ctx, "merge processor has no input")
	case 1:
		return p.inputs[0].Execute(ctx)
	}
	inputs := make([]streams.Stream, len(p.inputs))
	for i, in := range p.inputs {
		s, err := in.Execute(ctx)
		if err != nil {
			return nil, err
		}
		inputs[i] = s
	}
	if p.ordered {
		return p.executeOrdered(inputs), nil
	}

	ch := make(chan streams.Result, len(inputs))
	var remaining atomic.Int32
	remaining.Store(int32(len(inputs)))
	release := func(n int32) {
		if remaining.Add(-n) == 0 {
			close(ch)
		}
	}
	start := func() error {
		for i, s := range inputs {
			if err := p.spawnProducer(s, ch, func() { release(1) }); err != nil {
				release(int32(len(inputs) - i))
				return err
			}
		}
		return nil
	}
	return newLazyStream(streams.NewChannelStream(inputs[0].Schema(), ch), start), nil
}

// executeOrdered gives every input its own channel and reads them one
// after another.
func (p *MergeProcessor) executeOrdered(inputs []streams.Stream) streams.Stream {
	chs := make([]chan streams.Result, len(inputs))
	outputs := make([]streams.Stream, len(inputs))
	for i := range inputs {
		chs[i] = make(chan streams.Result, 1)
		outputs[i] = streams.NewChannelStream(inputs[i].Schema(), chs[i])
	}
	start := func() error {
		for i, s := range inputs {
			ch := chs[i]
			if err := p.spawnProducer(s, ch, func() { close(ch) }); err != nil {
				for _, rest := range chs[i:] {
					close(rest)
				}
				return err
			}
		}
		return nil
	}
	current := 0
	merged := streams.NewFuncStream(inputs[0].Schema(), func(ctx context.Context) (*batch.Batch, error) {
		for current < len(outputs) {
			bat, err := outputs[current].Next(ctx)
			if err != nil || bat != nil {
				return bat, err
			}
			current++
		}
		return nil, nil
	})
	return newLazyStream(merged, start)
}

// lazyStream runs start before the first Next. Producers therefore only
// begin once the merged stream has a consumer.
type lazyStream struct {
	streams.Stream
	start   func() error
	started bool
}

func newLazyStream(s streams.Stream, start func() error) *lazyStream {
	return &lazyStream{Stream: s, start: start}
}

func (s *lazyStream) Next(ctx context.Context) (*batch.Batch, error) {
	if !s.started {
		s.started = true
		if err := s.start(); err != nil {
			return nil, err
		}
	}
	return s.Stream.Next(ctx)
}

func (p *MergeProcessor) spawnProducer(s streams.Stream, ch chan<- streams.Result, done func()) error {
	_, err := p.qctx.TrySpawn(func(ctx context.Context) error {
		defer done()
		for {
			bat, err := s.Next(ctx)
			if err != nil {
				streams.Send(ctx, ch, streams.Result{Err: err})
				return err
			}
			if bat == nil {
				return nil
			}
			if !streams.Send(ctx, ch, streams.Result{Batch: bat}) {
				return nil
			}
		}
	})
	return err
}
