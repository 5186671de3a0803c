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
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

// AzblobFS is a DataAccessor backed by an Azure Blob Storage container
type AzblobFS struct {
	container string
	keyPrefix string
	client    *azblob.Client
}

var _ DataAccessor = new(AzblobFS)

func NewAzblobFS(ctx context.Context, cfg config.AzblobStorageConfig) (*AzblobFS, error) {
	if cfg.Account == "" || cfg.Container == "" {
		return nil, moerr.NewBadArguments(ctx, "azblob account and container must be set")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account)
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.MasterKey)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "bad azblob credential: %v", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, moerr.NewBadArguments(ctx, "create azblob client: %v", err)
	}

	logutil.Info("new object storage",
		zap.String("sdk", "azblob"),
		zap.String("endpoint", endpoint),
		zap.String("container", cfg.Container),
	)

	return &AzblobFS{
		container: cfg.Container,
		keyPrefix: strings.Trim(cfg.Root, "/"),
		client:    client,
	}, nil
}

func (a *AzblobFS) Name() string {
	return BackendAzblob
}

func (a *AzblobFS) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := a.GetStream(ctx, path, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, a.mapError(ctx, err, path)
	}
	return data, nil
}

func (a *AzblobFS) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	if err := checkRange(ctx, offset, length); err != nil {
		return nil, err
	}
	path, err := cleanPath(ctx, path)
	if err != nil {
		return nil, err
	}
	opts := &azblob.DownloadStreamOptions{
		Range: azblob.HTTPRange{
			Offset: offset,
		},
	}
	if length > 0 {
		opts.Range.Count = length
	}
	resp, err := a.client.DownloadStream(ctx, a.container, a.pathToKey(path), opts)
	if err != nil {
		return nil, a.mapError(ctx, err, path)
	}
	return resp.Body, nil
}

func (a *AzblobFS) Put(ctx context.Context, path string, data []byte) error {
	path, err := cleanPath(ctx, path)
	if err != nil {
		return err
	}
	// block blob uploads commit atomically
	_, err = a.client.UploadBuffer(ctx, a.container, a.pathToKey(path), data, nil)
	if err != nil {
		return a.mapError(ctx, err, path)
	}
	return nil
}

func (a *AzblobFS) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := a.pathToKey(prefix)
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix: &keyPrefix,
	})
	var ret []string
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, a.mapError(ctx, err, prefix)
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			ret = append(ret, a.keyToPath(*item.Name))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (a *AzblobFS) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		path, err := cleanPath(ctx, path)
		if err != nil {
			return err
		}
		_, err = a.client.DeleteBlob(ctx, a.container, a.pathToKey(path), nil)
		if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
			return a.mapError(ctx, err, path)
		}
	}
	return nil
}

func (a *AzblobFS) pathToKey(path string) string {
	if a.keyPrefix == "" {
		return path
	}
	return a.keyPrefix + "/" + path
}

func (a *AzblobFS) keyToPath(key string) string {
	if a.keyPrefix == "" {
		return key
	}
	return strings.TrimPrefix(key, a.keyPrefix+"/")
}

func (a *AzblobFS) mapError(ctx context.Context, err error, path string) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return moerr.NewNotFound(ctx, "object %s not found", path)
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == http.StatusNotFound {
			return moerr.NewNotFound(ctx, "object %s not found", path)
		}
		if respErr.StatusCode >= 500 {
			return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
		}
	}
	if isTransient(err) {
		return &transientError{err: moerr.NewStorageIO(ctx, "%v", err)}
	}
	return moerr.NewStorageIO(ctx, "%v", err)
}
