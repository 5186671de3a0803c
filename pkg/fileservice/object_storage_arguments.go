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
	"net/url"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
)

// ObjectStorageArguments parameterizes the S3 compatible backends
type ObjectStorageArguments struct {
	Name      string
	KeyPrefix string

	Bucket   string
	Endpoint string
	Region   string

	KeyID        string
	KeySecret    string
	SessionToken string
}

func newObjectStorageArguments(cfg config.S3StorageConfig) ObjectStorageArguments {
	return ObjectStorageArguments{
		Name:      BackendS3,
		KeyPrefix: strings.Trim(cfg.Root, "/"),
		Bucket:    cfg.Bucket,
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		KeyID:     cfg.AccessKeyID,
		KeySecret: cfg.SecretAccessKey,
	}
}

func (o *ObjectStorageArguments) validate() error {
	if o.Bucket == "" {
		return moerr.NewBadArgumentsNoCtx("s3 bucket is not set")
	}

	// validate endpoint
	if o.Endpoint != "" {
		endpointURL, err := url.Parse(o.Endpoint)
		if err != nil {
			return moerr.NewBadArgumentsNoCtx("invalid s3 endpoint %s: %v", o.Endpoint, err)
		}
		if endpointURL.Scheme == "" {
			endpointURL.Scheme = "https"
		}
		o.Endpoint = endpointURL.String()
	}

	if o.Region == "" {
		o.Region = "us-east-1"
	}
	return nil
}

func (o *ObjectStorageArguments) hasStaticCredentials() bool {
	return o.KeyID != "" && o.KeySecret != ""
}

func (o *ObjectStorageArguments) pathToKey(path string) string {
	if o.KeyPrefix == "" {
		return path
	}
	return o.KeyPrefix + "/" + path
}

func (o *ObjectStorageArguments) keyToPath(key string) string {
	if o.KeyPrefix == "" {
		return key
	}
	return strings.TrimPrefix(key, o.KeyPrefix+"/")
}
