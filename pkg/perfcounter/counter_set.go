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

package perfcounter

import (
	"sync/atomic"
)

type CounterSet struct {
	DataAccess DataAccessCounterSet
}

type DataAccessCounterSet struct {
	Get       atomic.Int64 // full object reads
	GetStream atomic.Int64 // ranged reads
	Put       atomic.Int64 // full object writes
	List      atomic.Int64 // prefix listings
	Delete    atomic.Int64 // deleted objects
	Retry     atomic.Int64 // transient read failures retried

	// ReadBytes: bytes returned to callers by Get and GetStream
	ReadBytes atomic.Int64
	// WriteBytes: bytes handed to Put
	WriteBytes atomic.Int64
}

func (c *CounterSet) Reset() {
	c.DataAccess.Get.Store(0)
	c.DataAccess.GetStream.Store(0)
	c.DataAccess.Put.Store(0)
	c.DataAccess.List.Store(0)
	c.DataAccess.Delete.Store(0)
	c.DataAccess.Retry.Store(0)
	c.DataAccess.ReadBytes.Store(0)
	c.DataAccess.WriteBytes.Store(0)
}

// IterFields calls fn for every counter with its dotted path.
func (c *CounterSet) IterFields(fn func(path []string, counter *atomic.Int64) error) error {
	fields := []struct {
		name    string
		counter *atomic.Int64
	}{
		{"Get", &c.DataAccess.Get},
		{"GetStream", &c.DataAccess.GetStream},
		{"Put", &c.DataAccess.Put},
		{"List", &c.DataAccess.List},
		{"Delete", &c.DataAccess.Delete},
		{"Retry", &c.DataAccess.Retry},
		{"ReadBytes", &c.DataAccess.ReadBytes},
		{"WriteBytes", &c.DataAccess.WriteBytes},
	}
	for _, f := range fields {
		if err := fn([]string{"DataAccess", f.name}, f.counter); err != nil {
			return err
		}
	}
	return nil
}
