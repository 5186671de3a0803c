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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCounterSet(t *testing.T) {
	ctx := context.Background()
	var a, b CounterSet
	ctx = WithCounterSet(ctx, &a)
	same := WithCounterSet(ctx, &a)
	assert.Equal(t, ctx, same)

	ctx = WithCounterSet(ctx, &b)
	Update(ctx, func(set *CounterSet) {
		set.DataAccess.Get.Add(1)
		set.DataAccess.ReadBytes.Add(10)
	})
	assert.Equal(t, int64(1), a.DataAccess.Get.Load())
	assert.Equal(t, int64(10), b.DataAccess.ReadBytes.Load())
}

func TestUpdateExtras(t *testing.T) {
	var a, extra CounterSet
	ctx := WithCounterSet(context.Background(), &a)
	Update(ctx, func(set *CounterSet) {
		set.DataAccess.Put.Add(1)
	}, &extra, nil)
	assert.Equal(t, int64(1), a.DataAccess.Put.Load())
	assert.Equal(t, int64(1), extra.DataAccess.Put.Load())

	Update(context.Background(), func(set *CounterSet) {
		set.DataAccess.Put.Add(1)
	})
	assert.Equal(t, int64(1), a.DataAccess.Put.Load())
}

func TestWithCounterSetInherited(t *testing.T) {
	var a CounterSet
	parent := WithCounterSet(context.Background(), &a)
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	Update(ctx, func(set *CounterSet) {
		set.DataAccess.List.Add(2)
	})
	assert.Equal(t, int64(2), a.DataAccess.List.Load())
}

func TestResetAndExport(t *testing.T) {
	var a CounterSet
	a.DataAccess.Get.Add(3)
	a.DataAccess.WriteBytes.Add(7)
	fields := NewCounterLogExporter(&a).Export()
	assert.Equal(t, 8, len(fields))
	assert.Equal(t, "DataAccess.Get", fields[0].Key)
	assert.Equal(t, int64(3), fields[0].Integer)

	a.Reset()
	assert.Equal(t, int64(0), a.DataAccess.Get.Load())
	assert.Equal(t, int64(0), a.DataAccess.WriteBytes.Load())
}
