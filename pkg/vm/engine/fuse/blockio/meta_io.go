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
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

func ReadSegment(ctx context.Context, da fileservice.DataAccessor, location string) (*meta.SegmentInfo, error) {
	data, err := da.Get(ctx, location)
	if err != nil {
		return nil, err
	}
	seg, err := meta.UnmarshalSegmentInfo(data)
	if err != nil {
		logutil.ErrorCtx(ctx, "failed to decode segment",
			zap.String("path", location),
			zap.Error(err))
		return nil, moerr.NewInternalError(ctx, "decode segment %s: %v", location, err)
	}
	return seg, nil
}

func WriteSegment(ctx context.Context, da fileservice.DataAccessor, location string, seg *meta.SegmentInfo) error {
	data, err := seg.Marshal()
	if err != nil {
		return moerr.NewInternalError(ctx, "encode segment %s: %v", location, err)
	}
	return da.Put(ctx, location, data)
}

func ReadSnapshot(ctx context.Context, da fileservice.DataAccessor, location string) (*meta.TableSnapshot, error) {
	data, err := da.Get(ctx, location)
	if err != nil {
		return nil, err
	}
	ss, err := meta.UnmarshalTableSnapshot(data)
	if err != nil {
		logutil.ErrorCtx(ctx, "failed to decode snapshot",
			zap.String("path", location),
			zap.Error(err))
		return nil, moerr.NewInternalError(ctx, "decode snapshot %s: %v", location, err)
	}
	return ss, nil
}

func WriteSnapshot(ctx context.Context, da fileservice.DataAccessor, location string, ss *meta.TableSnapshot) error {
	data, err := ss.Marshal()
	if err != nil {
		return moerr.NewInternalError(ctx, "encode snapshot %s: %v", location, err)
	}
	return da.Put(ctx, location, data)
}
