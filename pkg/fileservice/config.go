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

package fileservice

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
)

// NewDataAccessor creates the backend selected by cfg.Type
func NewDataAccessor(ctx context.Context, cfg config.StorageConfig) (DataAccessor, error) {
	switch cfg.Type {
	case config.StorageTypeMemory:
		return NewMemoryFS(), nil
	case config.StorageTypeDisk:
		return NewLocalFS(cfg.Disk.DataPath)
	case config.StorageTypeS3:
		args := newObjectStorageArguments(cfg.S3)
		if cfg.S3.SDK == config.S3SDKMinio {
			return NewMinioSDK(ctx, args)
		}
		return NewS3FS(ctx, args)
	case config.StorageTypeAzblob:
		return NewAzblobFS(ctx, cfg.Azblob)
	default:
		return nil, moerr.NewBadArguments(ctx, "unknown storage type: %s", cfg.Type)
	}
}

// NewQueryAccessor stacks the retry and interceptor layers over a backend
func NewQueryAccessor(backend DataAccessor, metrics *DalMetrics) *Interceptor {
	return NewInterceptor(NewRetryAccessor(backend), metrics)
}
