// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/greenmaskio/schemashift/internal/storages"
	"github.com/greenmaskio/schemashift/internal/storages/domains"
)

const (
	dirMode  os.FileMode = 0750
	fileMode os.FileMode = 0640
)

type Storage struct {
	dirMode  os.FileMode
	fileMode os.FileMode
	cwd      string
}

func NewStorage(cfg *Config) (*Storage, error) {
	p := cfg.Path
	if p == "" {
		p = defaultPath
	}
	fileInfo, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("cannot open storage directory: %w", err)
	}
	if !fileInfo.IsDir() {
		return nil, fmt.Errorf("storage path %s is not a directory", p)
	}
	return &Storage{
		dirMode:  dirMode,
		fileMode: fileMode,
		cwd:      p,
	}, nil
}

func (s *Storage) GetCwd() string {
	return s.cwd
}

func (s *Storage) GetObject(_ context.Context, filePath string) (io.ReadCloser, error) {
	f, err := os.Open(path.Join(s.cwd, filePath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filePath, storages.ErrFileNotFound)
	}
	return f, err
}

func (s *Storage) PutObject(ctx context.Context, filePath string, body io.Reader) error {
	fullPath := path.Join(s.cwd, filePath)
	if err := os.MkdirAll(path.Dir(fullPath), s.dirMode); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, s.fileMode)
	if err != nil {
		return fmt.Errorf("unable to create file: %w", err)
	}
	defer f.Close()

	done := make(chan struct{})
	go func() {
		_, err = io.Copy(f, body)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if err != nil {
		return fmt.Errorf("error writing data: %w", err)
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, filePaths ...string) error {
	for _, fp := range filePaths {
		fileInfo, err := os.Stat(path.Join(s.cwd, fp))
		if err != nil {
			return err
		}
		if fileInfo.IsDir() {
			err = os.RemoveAll(path.Join(s.cwd, fp))
			if err != nil {
				return fmt.Errorf(`error deleting directory %s: %w`, fp, err)
			}
		} else {
			err = os.Remove(path.Join(s.cwd, fp))
			if err != nil {
				return fmt.Errorf(`error deleting file %s: %w`, fp, err)
			}
		}
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, fileName string) (bool, error) {
	_, err := os.Stat(path.Join(s.cwd, fileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Storage) SubStorage(dp string, relative bool) storages.Storager {
	dirPath := dp
	if relative {
		dirPath = path.Join(s.cwd, dp)
	}
	return &Storage{
		cwd:      dirPath,
		dirMode:  s.dirMode,
		fileMode: s.fileMode,
	}
}

func (s *Storage) Stat(_ context.Context, fileName string) (*domains.ObjectStat, error) {
	fullPath := path.Join(s.cwd, fileName)
	fileInfo, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &domains.ObjectStat{
			Name:         fullPath,
			LastModified: time.Time{},
			Exist:        false,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting file stat: %w", err)
	}

	return &domains.ObjectStat{
		Name:         fullPath,
		Size:         fileInfo.Size(),
		LastModified: fileInfo.ModTime(),
		Exist:        true,
	}, nil
}
