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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

const (
	sentinelFileName = "thisisafusedatadir"
	tmpDirName       = ".tmp"
)

// LocalFS is a DataAccessor rooted at a local directory
type LocalFS struct {
	rootPath string

	sync.RWMutex
	dirFiles map[string]*os.File
}

var _ DataAccessor = new(LocalFS)

func NewLocalFS(rootPath string) (*LocalFS, error) {
	// ensure dir
	f, err := os.Open(rootPath)
	if os.IsNotExist(err) {
		// not exists, create
		err := os.MkdirAll(rootPath, 0755)
		if err != nil {
			return nil, err
		}
		err = os.WriteFile(filepath.Join(rootPath, sentinelFileName), nil, 0644)
		if err != nil {
			return nil, err
		}

	} else if err != nil {
		return nil, err

	} else {
		// existed, check if a real data dir
		defer f.Close()
		entries, err := f.ReadDir(1)
		if len(entries) == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			// empty dir, claim it
			if err := os.WriteFile(filepath.Join(rootPath, sentinelFileName), nil, 0644); err != nil {
				return nil, err
			}
		} else {
			_, err := os.Stat(filepath.Join(rootPath, sentinelFileName))
			if os.IsNotExist(err) {
				return nil, moerr.NewBadArgumentsNoCtx("%s is not a fuse data dir", rootPath)
			} else if err != nil {
				return nil, err
			}
		}
	}

	if err := os.MkdirAll(filepath.Join(rootPath, tmpDirName), 0755); err != nil {
		return nil, err
	}

	return &LocalFS{
		rootPath: rootPath,
		dirFiles: make(map[string]*os.File),
	}, nil
}

func (l *LocalFS) Name() string {
	return BackendDisk
}

func (l *LocalFS) Get(ctx context.Context, path string) ([]byte, error) {
	r, err := l.GetStream(ctx, path, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	return data, nil
}

func (l *LocalFS) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	if err := checkRange(ctx, offset, length); err != nil {
		return nil, err
	}
	nativePath, err := l.toNativeFilePath(ctx, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(nativePath)
	if os.IsNotExist(err) {
		return nil, moerr.NewNotFound(ctx, "object %s not found", path)
	}
	if err != nil {
		return nil, moerr.NewStorageIO(ctx, "%v", err)
	}

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, moerr.NewStorageIO(ctx, "%v", err)
		}
	}
	var r io.Reader = f
	if length > 0 {
		r = io.LimitReader(f, length)
	}
	return &readCloser{
		r:         r,
		closeFunc: f.Close,
	}, nil
}

// Size is the stat size of the object file
func (l *LocalFS) Size(ctx context.Context, path string) (int64, error) {
	nativePath, err := l.toNativeFilePath(ctx, path)
	if err != nil {
		return 0, err
	}
	stat, err := os.Stat(nativePath)
	if os.IsNotExist(err) {
		return 0, moerr.NewNotFound(ctx, "object %s not found", path)
	}
	if err != nil {
		return 0, moerr.NewStorageIO(ctx, "%v", err)
	}
	return stat.Size(), nil
}

func (l *LocalFS) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	nativePath, err := l.toNativeFilePath(ctx, path)
	if err != nil {
		return err
	}
	if err := l.write(nativePath, data); err != nil {
		return moerr.NewStorageIO(ctx, "%v", err)
	}
	return nil
}

func (l *LocalFS) write(nativePath string, data []byte) error {
	// write to a temp file in the same file system, then rename
	f, err := os.CreateTemp(filepath.Join(l.rootPath, tmpDirName), "*.tmp")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return multierr.Append(err, cleanupTemp(f, tmpName))
	}
	if err := f.Sync(); err != nil {
		return multierr.Append(err, cleanupTemp(f, tmpName))
	}
	if err := f.Close(); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}

	// ensure parent dir
	parentDir, _ := filepath.Split(nativePath)
	if err := l.ensureDir(parentDir); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}

	if err := os.Rename(tmpName, nativePath); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}
	return l.syncDir(filepath.Clean(parentDir))
}

func cleanupTemp(f *os.File, name string) error {
	return multierr.Append(f.Close(), os.Remove(name))
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	// walk from the deepest directory the prefix names
	dir := ""
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		dir = prefix[:idx]
	}
	walkRoot := filepath.Join(l.rootPath, filepath.FromSlash(dir))

	var ret []string
	err := filepath.WalkDir(walkRoot, func(nativePath string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && nativePath != walkRoot {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || name == sentinelFileName {
			return nil
		}
		rel, err := filepath.Rel(l.rootPath, nativePath)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			ret = append(ret, key)
		}
		return nil
	})
	if err != nil {
		return nil, moerr.NewStorageIO(ctx, "%v", err)
	}
	sort.Strings(ret)
	return ret, nil
}

func (l *LocalFS) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		nativePath, err := l.toNativeFilePath(ctx, path)
		if err != nil {
			return err
		}
		err = os.Remove(nativePath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return moerr.NewStorageIO(ctx, "%v", err)
		}
		parentDir, _ := filepath.Split(nativePath)
		if err := l.syncDir(filepath.Clean(parentDir)); err != nil {
			return moerr.NewStorageIO(ctx, "%v", err)
		}
	}
	return nil
}

// Close releases the cached directory handles
func (l *LocalFS) Close() error {
	l.Lock()
	defer l.Unlock()
	var err error
	for path, f := range l.dirFiles {
		err = multierr.Append(err, f.Close())
		delete(l.dirFiles, path)
	}
	return err
}

func (l *LocalFS) ensureDir(nativePath string) error {
	nativePath = filepath.Clean(nativePath)
	if nativePath == "" || nativePath == "." {
		return nil
	}

	// check existence by l.dirFiles
	l.RLock()
	_, ok := l.dirFiles[nativePath]
	if ok {
		l.RUnlock()
		return nil
	}
	l.RUnlock()

	// check existence by fstat
	_, err := os.Stat(nativePath)
	if err == nil {
		return nil
	}

	// ensure parent
	parent, _ := filepath.Split(nativePath)
	if filepath.Clean(parent) != nativePath {
		if err := l.ensureDir(parent); err != nil {
			return err
		}
	}

	if err := os.Mkdir(nativePath, 0755); err != nil && !os.IsExist(err) {
		return err
	}

	// sync parent dir
	return l.syncDir(filepath.Clean(parent))
}

func (l *LocalFS) syncDir(nativePath string) error {
	l.Lock()
	f, ok := l.dirFiles[nativePath]
	if !ok {
		var err error
		f, err = os.Open(nativePath)
		if err != nil {
			l.Unlock()
			return err
		}
		l.dirFiles[nativePath] = f
	}
	l.Unlock()
	return f.Sync()
}

func (l *LocalFS) toNativeFilePath(ctx context.Context, path string) (string, error) {
	cleaned, err := cleanPath(ctx, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.rootPath, filepath.FromSlash(cleaned)), nil
}
