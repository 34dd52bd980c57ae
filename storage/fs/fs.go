// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fs provides a backend-agnostic filesystem layer for storing
// output logs.
package fs

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by NewReader for a file that does not exist.
var ErrNotExist = errors.New("file does not exist")

// An FS stores uploaded files.
type FS interface {
	// NewWriter creates a new file called name with the given
	// metadata. The file is visible to readers once the writer is
	// closed.
	NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error)

	// NewReader opens the file called name.
	NewReader(ctx context.Context, name string) (io.ReadCloser, error)
}

// A Writer is an io.Writer that can also be closed with an error.
type Writer interface {
	io.WriteCloser
	// CloseWithError cancels the writing of the file, removing
	// any partially written data.
	CloseWithError(error) error
}

// MemFS is an in-memory filesystem implementing the FS interface.
type MemFS struct {
	mu      sync.Mutex
	content map[string]*memFile
}

// NewMemFS constructs a new, empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		content: make(map[string]*memFile),
	}
}

// NewWriter returns a Writer for a given file name. When the Writer is
// closed, the file will be replaced if it already exists.
func (fs *MemFS) NewWriter(_ context.Context, name string, metadata map[string]string) (Writer, error) {
	meta := make(map[string]string)
	for k, v := range metadata {
		meta[k] = v
	}
	return &memFile{fs: fs, name: name, metadata: meta}, nil
}

// NewReader returns a reader over the content of the file name.
func (fs *MemFS) NewReader(_ context.Context, name string) (io.ReadCloser, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.content[name]
	if !ok {
		return nil, errors.Wrap(ErrNotExist, name)
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

// Files returns the names of the files written to fs.
func (fs *MemFS) Files() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var files []string
	for f := range fs.content {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Metadata returns the metadata of the file name, or nil if it does
// not exist.
func (fs *MemFS) Metadata(name string) map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if f, ok := fs.content[name]; ok {
		return f.metadata
	}
	return nil
}

// memFile represents a file in a MemFS. While the file is being
// written, fs points to the filesystem. Close writes the file's
// content to fs and sets fs to nil.
type memFile struct {
	fs       *MemFS
	name     string
	metadata map[string]string
	content  []byte
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.fs == nil {
		return 0, errors.New("write on closed file")
	}
	f.content = append(f.content, p...)
	return len(p), nil
}

func (f *memFile) Close() error {
	if f.fs == nil {
		return errors.New("already closed")
	}
	fs := f.fs
	f.fs = nil
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.content[f.name] = f
	return nil
}

func (f *memFile) CloseWithError(error) error {
	f.fs = nil
	return nil
}
