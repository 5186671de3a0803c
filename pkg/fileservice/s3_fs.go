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
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

// S3FS is a DataAccessor backed by S3 through aws-sdk-go-v2
type S3FS struct {
	args   ObjectStorageArguments
	client *s3.Client
}

// key mapping scheme:
// <KeyPrefix>/<path> -> <path>

var _ DataAccessor = new(S3FS)

func NewS3FS(
	ctx context.Context,
	args ObjectStorageArguments,
) (*S3FS, error) {

	if err := args.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*17)
	defer cancel()

	configOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(args.Region),
	}
	if args.hasStaticCredentials() {
		configOptions = append(configOptions,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(args.KeyID, args.KeySecret, args.SessionToken),
			),
		)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "load aws config: %v", err)
	}

	var s3Options []func(*s3.Options)
	if args.Endpoint != "" {
		endpoint := args.Endpoint
		endpointResolver := s3.EndpointResolverFunc(
			func(
				region string,
				options s3.EndpointResolverOptions,
			) (
				ep aws.Endpoint,
				err error,
			) {
				_ = options
				ep.URL = endpoint
				ep.Source = aws.EndpointSourceCustom
				ep.HostnameImmutable = true
				ep.SigningRegion = region
				return
			},
		)
		s3Options = append(s3Options,
			s3.WithEndpointResolver(endpointResolver),
			func(o *s3.Options) {
				o.UsePathStyle = true
			},
		)
	}

	client := s3.NewFromConfig(cfg, s3Options...)

	logutil.Info("new object storage",
		zap.String("sdk", "aws"),
		zap.String("endpoint", args.Endpoint),
		zap.String("bucket", args.Bucket),
		zap.String("key-prefix", args.KeyPrefix),
	)

	// head bucket to validate config
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(args.Bucket),
	})
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "bad s3 config: %v", err)
	}

	return &S3FS{
		args:   args,
		client: client,
	}, nil
}

func (s *S3FS) Name() string {
	return s.args.Name
}

func (s *S3FS) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := s.GetStream(ctx, path, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, s.mapError(ctx, err, path)
	}
	return data, nil
}

func (s *S3FS) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	if err := checkRange(ctx, offset, length); err != nil {
		return nil, err
	}
	path, err := cleanPath(ctx, path)
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.args.Bucket),
		Key:    aws.String(s.args.pathToKey(path)),
	}
	if length > 0 {
		input.Range = aws.String(rangeHeader(offset, offset+length-1))
	} else if offset > 0 {
		input.Range = aws.String(rangeHeader(offset, -1))
	}
	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, s.mapError(ctx, err, path)
	}
	return output.Body, nil
}

func (s *S3FS) Size(ctx context.Context, path string) (int64, error) {
	path, err := cleanPath(ctx, path)
	if err != nil {
		return 0, err
	}
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.args.Bucket),
		Key:    aws.String(s.args.pathToKey(path)),
	})
	if err != nil {
		return 0, s.mapError(ctx, err, path)
	}
	return aws.ToInt64(output.ContentLength), nil
}

func (s *S3FS) Put(ctx context.Context, path string, data []byte) error {
	path, err := cleanPath(ctx, path)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.args.Bucket),
		Key:    aws.String(s.args.pathToKey(path)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return s.mapError(ctx, err, path)
	}
	return nil
}

func (s *S3FS) List(ctx context.Context, prefix string) ([]string, error) {
	var ret []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.args.Bucket),
		Prefix: aws.String(s.args.pathToKey(prefix)),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.mapError(ctx, err, prefix)
		}
		for _, obj := range output.Contents {
			ret = append(ret, s.args.keyToPath(aws.ToString(obj.Key)))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (s *S3FS) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		path, err := cleanPath(ctx, path)
		if err != nil {
			return err
		}
		_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.args.Bucket),
			Key:    aws.String(s.args.pathToKey(path)),
		})
		if err != nil {
			if mapped := s.mapError(ctx, err, path); moerr.IsNotFound(mapped) {
				continue
			}
			return s.mapError(ctx, err, path)
		}
	}
	return nil
}

func (s *S3FS) mapError(ctx context.Context, err error, path string) error {
	if err == nil {
		return nil
	}
	var httpError *awshttp.ResponseError
	if errors.As(err, &httpError) {
		if httpError.Response.StatusCode == 404 {
			return moerr.NewNotFound(ctx, "object %s not found", path)
		}
		if httpError.Response.StatusCode >= 500 {
			return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
		}
	}
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		switch apiError.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return moerr.NewNotFound(ctx, "object %s not found", path)
		}
	}
	if isTransient(err) {
		return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
	}
	return moerr.NewStorageIO(ctx, "%v", err)
}

// rangeHeader formats an http range, end < 0 means to the end of the object
func rangeHeader(start, end int64) string {
	if end < 0 {
		return fmt.Sprintf("bytes=%d-", start)
	}
	return fmt.Sprintf("bytes=%d-%d", start, end)
}
