// Copyright 2023 Greenmask
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
	"github.com/rs/zerolog/log"
)

type WriteCloseFlusher interface {
	io.WriteCloser
	Flush() error
}

// GzipWriter compresses everything written to it into w
type GzipWriter struct {
	w       io.WriteCloser
	gz      WriteCloseFlusher
	written int64
}

func NewGzipWriter(w io.WriteCloser, usePgzip bool) *GzipWriter {
	var gz WriteCloseFlusher
	if usePgzip {
		gz = pgzip.NewWriter(w)
	} else {
		gz = gzip.NewWriter(w)
	}
	return &GzipWriter{
		w:  w,
		gz: gz,
	}
}

func (gw *GzipWriter) Write(p []byte) (int, error) {
	n, err := gw.gz.Write(p)
	gw.written += int64(n)
	return n, err
}

// Written - amount of uncompressed bytes accepted so far
func (gw *GzipWriter) Written() int64 {
	return gw.written
}

// Close flushes the compressor and closes the underlying writer. The underlying writer is closed
// even if flushing failed.
func (gw *GzipWriter) Close() error {
	var globalErr error
	if err := gw.gz.Flush(); err != nil {
		globalErr = fmt.Errorf("error flushing gzip buffer: %w", err)
		log.Warn().Err(err).Msg("error flushing gzip buffer")
	}
	if err := gw.gz.Close(); err != nil {
		globalErr = fmt.Errorf("error closing gzip writer: %w", err)
		log.Warn().Err(err).Msg("error closing gzip writer")
	}
	if err := gw.w.Close(); err != nil {
		globalErr = fmt.Errorf("error closing destination: %w", err)
		log.Warn().Err(err).Msg("error closing destination")
	}
	return globalErr
}

// NopWriteCloser turns a plain writer into io.WriteCloser
func NopWriteCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
