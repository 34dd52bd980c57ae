// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hdrlog reads and writes interval histogram logs.
//
// The log format itself is implemented by
// github.com/HdrHistogram/hdrhistogram-go. This package adds a
// restartable Source abstraction, so a log can be read more than once
// within a single computation, and a Reader with an API modeled on
// bufio.Scanner.
package hdrlog

import (
	"bytes"
	"io"
	"os"
)

// A Source opens a fresh stream positioned at the start of one
// interval histogram log. Every call must return an independent stream
// over the same content. The caller closes the stream.
type Source func() (io.ReadCloser, error)

// BytesSource returns a Source that reads data from memory.
func BytesSource(data []byte) Source {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// FileSource returns a Source that opens the file at path on every
// call.
func FileSource(path string) Source {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}
