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

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/vm/processors"
)

func New(qctx processors.QueryContext) *Pipeline {
	return &Pipeline{qctx: qctx}
}

func (p *Pipe) Name() string {
	if len(p.processors) == 0 {
		return ""
	}
	return p.processors[0].Name()
}

func (p *Pipe) NumProcessors() int {
	return len(p.processors)
}

func (p *Pipe) Processor(i int) processors.Processor {
	return p.processors[i]
}

func (p *Pipeline) Pipes() []*Pipe {
	return p.pipes
}

func (p *Pipeline) lastPipe() *Pipe {
	if len(p.pipes) == 0 {
		return nil
	}
	return p.pipes[len(p.pipes)-1]
}

// NumWays is the width of the last pipe.
func (p *Pipeline) NumWays() int {
	if last := p.lastPipe(); last != nil {
		return last.NumProcessors()
	}
	return 0
}

// AddSource adds a source processor to the first pipe. Sources are
// added before any transform.
func (p *Pipeline) AddSource(source processors.Processor) error {
	if len(p.pipes) > 1 {
		return moerr.NewInternalErrorNoCtx("cannot add source %s after transforms", source.Name())
	}
	if len(p.pipes) == 0 {
		p.pipes = append(p.pipes, &Pipe{})
	}
	p.pipes[0].processors = append(p.pipes[0].processors, source)
	return nil
}

// AddSimpleTransform appends a pipe of the same width, one new processor
// per way.
func (p *Pipeline) AddSimpleTransform(fn func() (processors.Processor, error)) error {
	last := p.lastPipe()
	if last == nil {
		return moerr.NewInternalErrorNoCtx("pipeline has no source")
	}
	pipe := &Pipe{processors: make([]processors.Processor, 0, last.NumProcessors())}
	for _, input := range last.processors {
		proc, err := fn()
		if err != nil {
			return err
		}
		if err := proc.ConnectTo(input); err != nil {
			return err
		}
		pipe.processors = append(pipe.processors, proc)
	}
	p.pipes = append(p.pipes, pipe)
	return nil
}

// Merge narrows the pipeline to one way.
func (p *Pipeline) Merge() error {
	return p.Resize(1)
}

// OrderedMerge narrows the pipeline to one way that outputs the blocks
// of each way in turn.
func (p *Pipeline) OrderedMerge() error {
	ways := p.NumWays()
	if ways == 0 {
		return moerr.NewInternalErrorNoCtx("pipeline has no source")
	}
	if ways == 1 {
		return nil
	}
	merge := processors.NewOrderedMergeProcessor(p.qctx)
	for _, input := range p.lastPipe().processors {
		if err := merge.ConnectTo(input); err != nil {
			return err
		}
	}
	p.pipes = append(p.pipes, &Pipe{processors: []processors.Processor{merge}})
	return nil
}

// Resize narrows the pipeline to n ways, each merging a contiguous run of
// the current ways. Widening is not supported.
func (p *Pipeline) Resize(n int) error {
	ways := p.NumWays()
	switch {
	case ways == 0:
		return moerr.NewInternalErrorNoCtx("pipeline has no source")
	case n <= 0 || n > ways:
		return moerr.NewInternalErrorNoCtx("cannot resize pipeline from %d to %d ways", ways, n)
	case n == ways:
		return nil
	}
	last := p.lastPipe()
	pipe := &Pipe{processors: make([]processors.Processor, n)}
	for i := range pipe.processors {
		pipe.processors[i] = processors.NewMergeProcessor(p.qctx)
	}
	for i, input := range last.processors {
		if err := pipe.processors[i*n/ways].ConnectTo(input); err != nil {
			return err
		}
	}
	p.pipes = append(p.pipes, pipe)
	return nil
}

// Execute merges the pipeline to one way and returns the stream of the
// last processor.
func (p *Pipeline) Execute(ctx context.Context) (streams.Stream, error) {
	if p.NumWays() == 0 {
		return nil, moerr.NewInternalError(ctx, "pipeline has no source")
	}
	if err := p.Merge(); err != nil {
		return nil, err
	}
	return p.lastPipe().processors[0].Execute(ctx)
}

// String renders the pipes from the last one to the sources, each level
// indented one step further.
func (p *Pipeline) String() string {
	var buf bytes.Buffer
	for i := len(p.pipes) - 1; i >= 0; i-- {
		pipe := p.pipes[i]
		buf.WriteString(strings.Repeat("  ", len(p.pipes)-1-i))
		if pipe.Name() == "MergeProcessor" && i > 0 {
			prev := p.pipes[i-1]
			fmt.Fprintf(&buf, "Merge (%s × %s) to (%s × %s)",
				prev.Name(), plural(prev.NumProcessors()), pipe.Name(), plural(pipe.NumProcessors()))
		} else {
			fmt.Fprintf(&buf, "%s × %s", pipe.Name(), plural(pipe.NumProcessors()))
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func plural(n int) string {
	if n == 1 {
		return "1 processor"
	}
	return fmt.Sprintf("%d processors", n)
}
