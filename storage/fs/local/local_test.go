// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/rainfall/perfstore/storage/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	lfs, err := NewFS(dir)
	require.NoError(t, err)

	w, err := lfs.NewWriter(ctx, "outputs/a.hlog", nil)
	require.NoError(t, err)
	fmt.Fprint(w, "content")
	_, err = lfs.NewReader(ctx, "outputs/a.hlog")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	require.NoError(t, w.Close())

	r, err := lfs.NewReader(ctx, "outputs/a.hlog")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	w, err = lfs.NewWriter(ctx, "outputs/b.hlog", nil)
	require.NoError(t, err)
	fmt.Fprint(w, "partial")
	require.NoError(t, w.CloseWithError(errors.New("aborted")))

	entries, err := os.ReadDir(dir + "/outputs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.hlog", entries[0].Name())

	_, err = lfs.NewWriter(ctx, "../escape", nil)
	assert.Error(t, err)
}
