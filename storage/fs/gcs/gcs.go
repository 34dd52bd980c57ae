// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs implements the fs.FS interface using Google Cloud Storage.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/storage/fs"
	"google.golang.org/api/option"
)

// impl is an fs.FS backed by Google Cloud Storage.
type impl struct {
	bucket *storage.BucketHandle
}

// NewFS constructs an FS that writes to the provided bucket. opts
// configure the storage client, for example its credentials.
func NewFS(ctx context.Context, bucketName string, opts ...option.ClientOption) (fs.FS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &impl{client.Bucket(bucketName)}, nil
}

// NewWriter creates a new object. The object becomes visible when the
// writer is closed.
func (g *impl) NewWriter(ctx context.Context, name string, metadata map[string]string) (fs.Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	w.Metadata = metadata
	return &wrapper{w, cancel}, nil
}

// NewReader opens the object called name.
func (g *impl) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(name).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, errors.Wrap(fs.ErrNotExist, name)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return r, nil
}

// wrapper aborts the upload of its object when closed with an error.
type wrapper struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *wrapper) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// CloseWithError cancels the upload. The object is not created.
func (w *wrapper) CloseWithError(error) error {
	w.cancel()
	// Close reports the cancellation, which is what the caller
	// asked for.
	w.Writer.Close()
	return nil
}
