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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
)

func TestReaderAt(t *testing.T) {
	ctx := context.Background()
	fs := NewMemoryFS()
	require.NoError(t, fs.Put(ctx, "obj", []byte("0123456789")))

	r := NewReaderAt(ctx, fs, "obj", 10)
	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	n, err = r.ReadAt(buf, 8)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(buf[:n]))

	_, err = r.ReadAt(buf, 10)
	assert.Equal(t, io.EOF, err)
}

func TestNewDataAccessor(t *testing.T) {
	ctx := context.Background()

	fs, err := NewDataAccessor(ctx, config.StorageConfig{Type: config.StorageTypeMemory})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, fs.Name())

	fs, err = NewDataAccessor(ctx, config.StorageConfig{
		Type: config.StorageTypeDisk,
		Disk: config.DiskStorageConfig{DataPath: t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, BackendDisk, fs.Name())

	_, err = NewDataAccessor(ctx, config.StorageConfig{Type: "ftp"})
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	_, err = NewDataAccessor(ctx, config.StorageConfig{Type: config.StorageTypeAzblob})
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	_, err = NewDataAccessor(ctx, config.StorageConfig{
		Type: config.StorageTypeS3,
		S3:   config.S3StorageConfig{SDK: config.S3SDKMinio},
	})
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestObjectStorageArguments(t *testing.T) {
	args := newObjectStorageArguments(config.S3StorageConfig{
		Bucket:   "b",
		Endpoint: "http://127.0.0.1:9000",
		Root:     "/data/",
	})
	require.NoError(t, args.validate())
	assert.Equal(t, "us-east-1", args.Region)
	assert.Equal(t, "data/1/2/_ss/x", args.pathToKey("1/2/_ss/x"))
	assert.Equal(t, "1/2/_ss/x", args.keyToPath("data/1/2/_ss/x"))

	args = ObjectStorageArguments{Endpoint: "http://127.0.0.1:9000", Bucket: "b"}
	secure, err := minioValidateEndpoint(&args)
	require.NoError(t, err)
	assert.False(t, secure)
	assert.Equal(t, "127.0.0.1:9000", args.Endpoint)

	assert.Equal(t, "bytes=3-", rangeHeader(3, -1))
	assert.Equal(t, "bytes=3-9", rangeHeader(3, 9))
}

func TestQueryAccessor(t *testing.T) {
	metrics := new(DalMetrics)
	fs := NewQueryAccessor(NewMemoryFS(), metrics)
	require.NoError(t, fs.Put(context.Background(), "x", []byte("abc")))
	size, err := GetSize(context.Background(), fs, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
	assert.Equal(t, int64(3), metrics.WriteBytes.Load())
}
