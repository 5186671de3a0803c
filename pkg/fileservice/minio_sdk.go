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
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

// MinioSDK talks to S3 compatible stores through minio-go
type MinioSDK struct {
	args   ObjectStorageArguments
	client *minio.Client
}

var _ DataAccessor = new(MinioSDK)

func NewMinioSDK(
	ctx context.Context,
	args ObjectStorageArguments,
) (*MinioSDK, error) {

	if err := args.validate(); err != nil {
		return nil, err
	}

	options := new(minio.Options)

	// credentials
	var credentialProviders []credentials.Provider
	if args.hasStaticCredentials() {
		credentialProviders = append(credentialProviders, &credentials.Static{
			Value: credentials.Value{
				AccessKeyID:     args.KeyID,
				SecretAccessKey: args.KeySecret,
				SessionToken:    args.SessionToken,
				SignerType:      credentials.SignatureV4,
			},
		})
	} else {
		credentialProviders = append(credentialProviders,
			// aws env
			new(credentials.EnvAWS),
			// minio env
			new(credentials.EnvMinio),
		)
	}
	options.Creds = credentials.NewChainCredentials(credentialProviders)
	options.Region = args.Region

	// transport
	dialer := &net.Dialer{
		KeepAlive: 5 * time.Second,
	}
	options.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       180 * time.Second,
		MaxIdleConnsPerHost:   100,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	// endpoint
	isSecure, err := minioValidateEndpoint(&args)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "invalid s3 endpoint %s: %v", args.Endpoint, err)
	}
	options.Secure = isSecure

	client, err := minio.New(args.Endpoint, options)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "create minio client: %v", err)
	}

	logutil.Info("new object storage",
		zap.String("sdk", "minio"),
		zap.String("endpoint", args.Endpoint),
		zap.String("bucket", args.Bucket),
		zap.String("key-prefix", args.KeyPrefix),
	)

	// validate
	ok, err := client.BucketExists(ctx, args.Bucket)
	if err != nil {
		return nil, moerr.NewStorageIO(ctx, "%v", err)
	}
	if !ok {
		return nil, moerr.NewBadArguments(ctx, "bad s3 config, no such bucket or no permissions: %s", args.Bucket)
	}

	args.Name = BackendMinio
	return &MinioSDK{
		args:   args,
		client: client,
	}, nil
}

func (a *MinioSDK) Name() string {
	return a.args.Name
}

func (a *MinioSDK) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := a.GetStream(ctx, path, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, a.mapError(ctx, path, err)
	}
	return data, nil
}

func (a *MinioSDK) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	if err := checkRange(ctx, offset, length); err != nil {
		return nil, err
	}
	path, err := cleanPath(ctx, path)
	if err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if length > 0 {
		if err := opts.SetRange(offset, offset+length-1); err != nil {
			return nil, moerr.NewBadArguments(ctx, "%v", err)
		}
	} else if offset > 0 {
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, moerr.NewBadArguments(ctx, "%v", err)
		}
	}
	obj, err := a.client.GetObject(ctx, a.args.Bucket, a.args.pathToKey(path), opts)
	if err != nil {
		return nil, a.mapError(ctx, path, err)
	}
	// GetObject is lazy, stat surfaces a missing key before the first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, a.mapError(ctx, path, err)
	}
	return obj, nil
}

func (a *MinioSDK) Size(ctx context.Context, path string) (int64, error) {
	path, err := cleanPath(ctx, path)
	if err != nil {
		return 0, err
	}
	info, err := a.client.StatObject(ctx, a.args.Bucket, a.args.pathToKey(path), minio.StatObjectOptions{})
	if err != nil {
		return 0, a.mapError(ctx, path, err)
	}
	return info.Size, nil
}

func (a *MinioSDK) Put(ctx context.Context, path string, data []byte) error {
	path, err := cleanPath(ctx, path)
	if err != nil {
		return err
	}
	// not retryable because Reader may be half consumed
	_, err = a.client.PutObject(
		ctx,
		a.args.Bucket,
		a.args.pathToKey(path),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{},
	)
	if err != nil {
		return a.mapError(ctx, path, err)
	}
	return nil
}

func (a *MinioSDK) List(ctx context.Context, prefix string) ([]string, error) {
	var ret []string
	for info := range a.client.ListObjects(ctx, a.args.Bucket, minio.ListObjectsOptions{
		Prefix:    a.args.pathToKey(prefix),
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, a.mapError(ctx, prefix, info.Err)
		}
		ret = append(ret, a.args.keyToPath(info.Key))
	}
	sort.Strings(ret)
	return ret, nil
}

func (a *MinioSDK) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		path, err := cleanPath(ctx, path)
		if err != nil {
			return err
		}
		err = a.client.RemoveObject(ctx, a.args.Bucket, a.args.pathToKey(path), minio.RemoveObjectOptions{})
		if err != nil && !a.is404(err) {
			return a.mapError(ctx, path, err)
		}
	}
	return nil
}

func (a *MinioSDK) mapError(ctx context.Context, path string, err error) error {
	if a.is404(err) {
		return moerr.NewNotFound(ctx, "object %s not found", path)
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode >= 500 {
		return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
	}
	if isTransient(err) {
		return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
	}
	return moerr.NewStorageIO(ctx, "%v", err)
}

func (a *MinioSDK) is404(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey"
}

func minioValidateEndpoint(args *ObjectStorageArguments) (isSecure bool, err error) {
	if args.Endpoint == "" {
		args.Endpoint = "s3.amazonaws.com"
		return true, nil
	}

	endpointURL, err := url.Parse(args.Endpoint)
	if err != nil {
		return false, err
	}
	isSecure = endpointURL.Scheme == "https"
	endpointURL.Scheme = ""
	args.Endpoint = endpointURL.String()
	args.Endpoint = strings.TrimLeft(args.Endpoint, "/")

	return
}
