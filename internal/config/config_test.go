// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainfall/perfstore/payload"
)

func TestDefaults(t *testing.T) {
	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "sqlite3", c.DB.Driver)
	assert.Equal(t, "memory", c.FS.Kind)
	assert.Equal(t, payload.Zstd, c.PayloadFormat())
	assert.Equal(t, 200, c.Summary.MaxDataPoints)
	assert.Equal(t, 5*time.Minute, c.Summary.CacheTTL)
	assert.Equal(t, log.InfoLevel, c.LogLevel())
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfstore.yaml")
	err := os.WriteFile(path, []byte(`
http:
  addr: ":9090"
fs:
  kind: local
  dir: /var/lib/perfstore
summary:
  format: LZ4
  cachettl: 30s
`), 0o644)
	require.NoError(t, err)
	t.Setenv("PERFSTORE_SUMMARY_WORKERS", "8")
	t.Setenv("PERFSTORE_LOG_LEVEL", "debug")

	c, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.HTTP.Addr)
	assert.Equal(t, "/var/lib/perfstore", c.FS.Dir)
	assert.Equal(t, payload.LZ4, c.PayloadFormat())
	assert.Equal(t, 30*time.Second, c.Summary.CacheTTL)
	assert.Equal(t, 8, c.Summary.Workers)
	assert.Equal(t, log.DebugLevel, c.LogLevel())
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"db.driver", "postgres"},
		{"fs.kind", "s3"},
		{"fs.kind", "local"},
		{"fs.kind", "gcs"},
		{"summary.format", "BZIP2"},
		{"summary.maxdatapoints", "0"},
		{"summary.workers", "-1"},
		{"log.level", "loud"},
	}
	for _, test := range tests {
		t.Run(test.key+"="+test.value, func(t *testing.T) {
			v := New()
			v.Set(test.key, test.value)
			_, err := Load(v, "")
			assert.Error(t, err)
		})
	}
}
