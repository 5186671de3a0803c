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

package blockio

import (
	"encoding/binary"
	"math"

	hll "github.com/axiomhq/hyperloglog"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/encoding"

	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

const (
	// dictionaries are used for at most this many distinct values
	maxDictCardinality = 4096
	// strings whose distinct values outgrow one dictionary page go plain
	maxDictPageSize = 1 << 20
)

// ColumnSummary is what the encoding policy knows about a column.
type ColumnSummary struct {
	Rows      int
	NullCount int
	// hyperloglog estimate of the distinct non-null values
	NDV uint64
	// exact byte size of the distinct strings, 0 for other types
	DistinctBytes int
}

// InspectVector summarizes vec for ChooseEncoding.
func InspectVector(vec *vector.Vector) ColumnSummary {
	s := ColumnSummary{
		Rows:      vec.Length(),
		NullCount: vec.NullCount(),
	}
	if vec.IsConstNull() || vec.Length() == 0 {
		return s
	}
	sk := hll.New()
	var seen map[string]struct{}
	if vec.GetType() == types.T_varchar {
		seen = make(map[string]struct{})
	}
	rows := vec.Length()
	if vec.IsConst() {
		rows = 1
	}
	buf := make([]byte, 8)
	for i := 0; i < rows; i++ {
		v := vec.Get(i)
		if v.IsNull() {
			continue
		}
		if seen != nil {
			str := v.Str()
			if _, ok := seen[str]; !ok {
				seen[str] = struct{}{}
				s.DistinctBytes += len(str)
			}
			sk.Insert([]byte(str))
			continue
		}
		sk.Insert(fixedBytes(v, buf))
	}
	s.NDV = sk.Estimate()
	return s
}

func fixedBytes(v types.DataValue, buf []byte) []byte {
	typ := v.DataType()
	switch {
	case typ.IsUnsignedInt():
		binary.LittleEndian.PutUint64(buf, v.Uint64())
	case typ.IsFloat():
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.Float64()))
	case typ == types.T_bool:
		buf[0] = 0
		if v.Bool() {
			buf[0] = 1
		}
		return buf[:1]
	default:
		binary.LittleEndian.PutUint64(buf, uint64(v.Int64()))
	}
	return buf
}

func lowCardinality(s ColumnSummary) bool {
	return s.Rows > 0 && s.NDV <= uint64(s.Rows/4) && s.NDV <= maxDictCardinality
}

// ChooseEncoding picks the parquet encoding of a column. It only depends
// on its arguments so the same block always encodes to the same bytes.
func ChooseEncoding(typ types.T, s ColumnSummary) encoding.Encoding {
	switch {
	case typ == types.T_bool:
		return &parquet.RLE
	case typ.IsInteger(), typ.IsTemporal():
		if lowCardinality(s) {
			return &parquet.RLEDictionary
		}
		return &parquet.DeltaBinaryPacked
	case typ.IsFloat():
		if lowCardinality(s) {
			return &parquet.RLEDictionary
		}
		return &parquet.Plain
	case typ == types.T_varchar:
		if s.DistinctBytes > maxDictPageSize {
			return &parquet.Plain
		}
		return &parquet.RLEDictionary
	}
	return &parquet.Plain
}
