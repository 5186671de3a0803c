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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

const sampleConfig = `
[log]
level = "debug"
format = "json"

[query]
num-cpus = 4
default-database = "db1"

[storage]
type = "S3"

[storage.s3]
sdk = "minio"
bucket = "fuse"
endpoint = "http://127.0.0.1:9000"

[meta]
backend = "pebble"
data-dir = "/tmp/meta"
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(sampleConfig)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 4, cfg.Query.NumCPUs)
	require.Equal(t, "db1", cfg.Query.DefaultDatabase)
	require.Equal(t, StorageTypeS3, cfg.Storage.Type)
	require.Equal(t, S3SDKMinio, cfg.Storage.S3.SDK)
	require.Equal(t, "fuse", cfg.Storage.S3.Bucket)
	require.Equal(t, MetaBackendPebble, cfg.Meta.Backend)
	// untouched keys keep defaults
	require.Equal(t, 256, cfg.Query.MaxActiveSessions)
	require.Equal(t, "./_data", cfg.Storage.Disk.DataPath)
}

func TestValidate(t *testing.T) {
	_, err := ParseConfig("[storage]\ntype = \"ftp\"\n")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	_, err = ParseConfig("[meta]\nbackend = \"etcd\"\n")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	_, err = ParseConfig("[storage]\ntype = \"s3\"\n[storage.s3]\nsdk = \"gcs\"\n")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))

	_, err = ParseConfig("[query]\nmax-active-sessions = 0\n")
	require.Error(t, err)
}

func TestEnvName(t *testing.T) {
	require.Equal(t, "FUSE_STORAGE_S3_ACCESS_KEY_ID", EnvName(EnvPrefix, "storage", "s3", "access-key-id"))
	require.Equal(t, "FUSE_QUERY_NUM_CPUS", EnvName(EnvPrefix, "query", "num-cpus"))
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuse.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	env := map[string]string{
		"FUSE_STORAGE_S3_BUCKET": "from-env",
		"FUSE_QUERY_NUM_CPUS":    "8",
		"FUSE_LOG_DISABLE_STORE": "true",
	}
	stubs := gostub.Stub(&lookupEnv, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	defer stubs.Reset()

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	// env > file
	require.Equal(t, "from-env", cfg.Storage.S3.Bucket)
	require.Equal(t, 8, cfg.Query.NumCPUs)
	require.True(t, cfg.Log.DisableStore)
	// file > default
	require.Equal(t, "json", cfg.Log.Format)
	// default
	require.Equal(t, "admin", cfg.Query.TenantID)
}

func TestLoadConfigOSEnv(t *testing.T) {
	stubs := gostub.New()
	stubs.SetEnv("FUSE_STORAGE_TYPE", "memory")
	defer stubs.Reset()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, StorageTypeMemory, cfg.Storage.Type)
}

func TestLoadConfigBadEnv(t *testing.T) {
	stubs := gostub.Stub(&lookupEnv, func(key string) (string, bool) {
		if key == "FUSE_QUERY_NUM_CPUS" {
			return "many", true
		}
		return "", false
	})
	defer stubs.Reset()

	_, err := LoadConfig("")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
}

func TestConfigContext(t *testing.T) {
	cfg := NewDefaultConfig()
	ctx := WithConfig(context.Background(), cfg)
	require.Equal(t, cfg, GetConfig(ctx))
	require.Panics(t, func() { GetConfig(context.Background()) })
}
