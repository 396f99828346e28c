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


package ioutils

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/pgzip"
)

// GzipReader decompresses r and counts the uncompressed bytes read
type GzipReader struct {
	r    io.ReadCloser
	gz   io.ReadCloser
	read int64
}

func NewGzipReader(r io.ReadCloser, usePgzip bool) (*GzipReader, error) {
	var (
		gz  io.ReadCloser
		err error
	)
	if usePgzip {
		gz, err = pgzip.NewReader(r)
	} else {
		gz, err = gzip.NewReader(r)
	}
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("cannot create gzip reader: %w", err)
	}
	return &GzipReader{r: r, gz: gz}, nil
}

func (gr *GzipReader) Read(p []byte) (int, error) {
	n, err := gr.gz.Read(p)
	gr.read += int64(n)
	return n, err
}

// BytesRead - amount of uncompressed bytes returned so far
func (gr *GzipReader) BytesRead() int64 {
	return gr.read
}

func (gr *GzipReader) Close() error {
	var lastErr error
	if err := gr.gz.Close(); err != nil {
		lastErr = fmt.Errorf("error closing gzip reader: %w", err)
	}
	if err := gr.r.Close(); err != nil {
		lastErr = fmt.Errorf("error closing source: %w", err)
	}
	return lastErr
}
