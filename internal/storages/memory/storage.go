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

package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/greenmaskio/schemashift/internal/storages"
	"github.com/greenmaskio/schemashift/internal/storages/domains"
)

type object struct {
	data         []byte
	lastModified time.Time
}

// Storage keeps objects in memory. Sub storages share the objects of their parent.
type Storage struct {
	mu       *sync.RWMutex
	basePath string
	files    map[string]*object
}

func New(basePath string) *Storage {
	return &Storage{
		mu:       &sync.RWMutex{},
		basePath: basePath,
		files:    make(map[string]*object),
	}
}

func (s *Storage) key(filePath string) string {
	return path.Join(s.basePath, filePath)
}

func (s *Storage) GetCwd() string {
	return s.basePath
}

func (s *Storage) GetObject(_ context.Context, filePath string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.files[s.key(filePath)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filePath, storages.ErrFileNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) PutObject(_ context.Context, filePath string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[s.key(filePath)] = &object{
		data:         data,
		lastModified: time.Now(),
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, filePaths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, filePath := range filePaths {
		delete(s.files, s.key(filePath))
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, fileName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[s.key(fileName)]
	return ok, nil
}

func (s *Storage) SubStorage(subPath string, relative bool) storages.Storager {
	newBase := subPath
	if relative {
		newBase = path.Join(s.basePath, subPath)
	}
	return &Storage{
		mu:       s.mu,
		basePath: newBase,
		files:    s.files,
	}
}

func (s *Storage) Stat(_ context.Context, fileName string) (*domains.ObjectStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.files[s.key(fileName)]
	if !ok {
		return &domains.ObjectStat{Name: s.key(fileName)}, nil
	}
	return &domains.ObjectStat{
		Name:         s.key(fileName),
		Size:         int64(len(obj.data)),
		Exist:        true,
		LastModified: obj.lastModified,
	}, nil
}
