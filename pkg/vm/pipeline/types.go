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
	"github.com/matrixorigin/fusequery/pkg/vm/processors"
)

// Pipe is one stage of a pipeline, the same kind of processor once per
// parallel way.
type Pipe struct {
	processors []processors.Processor
}

// Pipeline is a chain of pipes. Every processor of a pipe reads from the
// processor at the same position of the previous pipe, or from all of
// them when it merges.
type Pipeline struct {
	qctx  processors.QueryContext
	pipes []*Pipe
}
