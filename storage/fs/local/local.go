// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package local implements the fs.FS interface using local files.
// Metadata is not stored separately; the header of each log records
// the information that metadata would.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/storage/fs"
)

// impl is an fs.FS backed by local disk.
type impl struct {
	root string
}

// NewFS constructs an FS that writes to the provided directory.
func NewFS(root string) (fs.FS, error) {
	if err := os.MkdirAll(root, 0o777); err != nil {
		return nil, errors.WithStack(err)
	}
	return &impl{root}, nil
}

func (l *impl) path(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", errors.Errorf("invalid file name %q", name)
	}
	return filepath.Join(l.root, filepath.FromSlash(name)), nil
}

// NewWriter creates a file. Metadata is ignored.
func (l *impl) NewWriter(ctx context.Context, name string, metadata map[string]string) (fs.Writer, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &wrapper{f, path}, nil
}

// NewReader opens the file name.
func (l *impl) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(fs.ErrNotExist, name)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// wrapper writes to a temporary file that is renamed to path on
// Close.
type wrapper struct {
	*os.File
	path string
}

func (w *wrapper) Close() error {
	if err := w.File.Close(); err != nil {
		os.Remove(w.File.Name())
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(w.File.Name(), w.path))
}

// CloseWithError closes the file and attempts to unlink it.
func (w *wrapper) CloseWithError(error) error {
	w.File.Close()
	return os.Remove(w.File.Name())
}
