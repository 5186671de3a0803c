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
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

const (
	StorageTypeDisk   = "disk"
	StorageTypeS3     = "s3"
	StorageTypeAzblob = "azblob"
	StorageTypeMemory = "memory"

	S3SDKAws   = "aws"
	S3SDKMinio = "minio"

	MetaBackendMemory = "memory"
	MetaBackendPebble = "pebble"
)

// Config is the whole fuse-query configuration file.
type Config struct {
	Log     logutil.LogConfig `toml:"log"`
	Query   QueryConfig       `toml:"query"`
	Storage StorageConfig     `toml:"storage"`
	Meta    MetaConfig        `toml:"meta"`
}

// QueryConfig holds the query node parameters
type QueryConfig struct {
	//tenant the node serves. default: "admin"
	TenantID string `toml:"tenant-id"`

	//size of the process wide worker pool. default: 0, the number of cpus
	NumCPUs int `toml:"num-cpus"`

	//maximum number of live sessions. default: 256
	MaxActiveSessions int `toml:"max-active-sessions"`

	//listening address of the prometheus endpoint. default: "127.0.0.1:7070"
	MetricAddress string `toml:"metric-address"`

	//database a new session starts in. default: "default"
	DefaultDatabase string `toml:"default-database"`
}

// StorageConfig selects and parameterizes the data accessor backend.
type StorageConfig struct {
	//one of disk, s3, azblob, memory. default: disk
	Type string `toml:"type"`

	Disk   DiskStorageConfig   `toml:"disk"`
	S3     S3StorageConfig     `toml:"s3"`
	Azblob AzblobStorageConfig `toml:"azblob"`
}

type DiskStorageConfig struct {
	//default: "./_data"
	DataPath string `toml:"data-path"`
}

type S3StorageConfig struct {
	//aws or minio. default: aws
	SDK             string `toml:"sdk"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access-key-id"`
	SecretAccessKey string `toml:"secret-access-key"`
	//key prefix inside the bucket
	Root string `toml:"root"`
}

type AzblobStorageConfig struct {
	Account   string `toml:"account"`
	Container string `toml:"container"`
	MasterKey string `toml:"master-key"`
	//default: https://<account>.blob.core.windows.net/
	Endpoint string `toml:"endpoint"`
	//blob name prefix inside the container
	Root string `toml:"root"`
}

// MetaConfig selects the metadata store backing the catalog and users.
type MetaConfig struct {
	//memory or pebble. default: memory
	Backend string `toml:"backend"`
	//pebble directory. default: "./_meta"
	DataDir string `toml:"data-dir"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Log: logutil.LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    512,
			MaxDays:    0,
			MaxBackups: 0,
		},
		Query: QueryConfig{
			TenantID:          "admin",
			NumCPUs:           0,
			MaxActiveSessions: 256,
			MetricAddress:     "127.0.0.1:7070",
			DefaultDatabase:   "default",
		},
		Storage: StorageConfig{
			Type: StorageTypeDisk,
			Disk: DiskStorageConfig{DataPath: "./_data"},
			S3:   S3StorageConfig{SDK: S3SDKAws},
		},
		Meta: MetaConfig{
			Backend: MetaBackendMemory,
			DataDir: "./_meta",
		},
	}
}

// LoadConfig reads the file at path over the defaults, then applies the
// environment. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, moerr.NewBadArgumentsNoCtx("load config %s: %v", path, err)
		}
	}
	if err := ApplyEnv(cfg, EnvPrefix, lookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes TOML text over the defaults. The environment is not consulted.
func ParseConfig(data string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, moerr.NewBadArgumentsNoCtx("parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Storage.Type = strings.ToLower(c.Storage.Type)
	switch c.Storage.Type {
	case StorageTypeDisk, StorageTypeMemory, StorageTypeAzblob:
	case StorageTypeS3:
		c.Storage.S3.SDK = strings.ToLower(c.Storage.S3.SDK)
		if c.Storage.S3.SDK == "" {
			c.Storage.S3.SDK = S3SDKAws
		}
		if c.Storage.S3.SDK != S3SDKAws && c.Storage.S3.SDK != S3SDKMinio {
			return moerr.NewBadArgumentsNoCtx("unknown s3 sdk: %s", c.Storage.S3.SDK)
		}
	default:
		return moerr.NewBadArgumentsNoCtx("unknown storage type: %s", c.Storage.Type)
	}

	c.Meta.Backend = strings.ToLower(c.Meta.Backend)
	switch c.Meta.Backend {
	case MetaBackendMemory, MetaBackendPebble:
	default:
		return moerr.NewBadArgumentsNoCtx("unknown meta backend: %s", c.Meta.Backend)
	}

	if c.Query.MaxActiveSessions <= 0 {
		return moerr.NewBadArgumentsNoCtx("max-active-sessions must be positive, got %d", c.Query.MaxActiveSessions)
	}
	if c.Query.NumCPUs < 0 {
		return moerr.NewBadArgumentsNoCtx("num-cpus must not be negative, got %d", c.Query.NumCPUs)
	}
	return nil
}

type configKey struct{}

// WithConfig attaches cfg to ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig gets the configuration from the context.
func GetConfig(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		panic("configuration is not attached to the context")
	}
	return cfg
}
