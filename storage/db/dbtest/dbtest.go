// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens empty databases for tests.
//
// By default each test gets a private in-memory SQLite database. With
// -cloud, each test instead gets a scratch MySQL database on the Cloud
// SQL instance named by -cloudsql, dropped when the test ends.
package dbtest

import (
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/google/uuid"
	"github.com/rainfall/perfstore/storage/db"
	_ "github.com/rainfall/perfstore/storage/db/sqlite3"
	"github.com/stretchr/testify/require"
)

var (
	cloud    = flag.Bool("cloud", false, "run database tests against Cloud SQL instead of in-memory SQLite")
	cloudsql = flag.String("cloudsql", "perfstore:us-central1:perfstore", "Cloud SQL instance used by -cloud")
)

// cloudDSN creates a scratch database on the Cloud SQL instance and
// returns its data source name. The database is dropped during t's
// cleanup.
func cloudDSN(t *testing.T) string {
	server := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)
	admin, err := sql.Open("mysql", server)
	require.NoError(t, err, "connect to %s", *cloudsql)

	name := "perfstore_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		admin.Close()
		require.NoError(t, err, "create database %s", name)
	}
	t.Logf("scratch database %s", name)

	t.Cleanup(func() {
		defer admin.Close()
		if _, err := admin.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Errorf("drop database %s: %v", name, err)
		}
	})
	return server + name
}

// NewDB returns a connection to an empty database that is closed
// when t and its subtests complete.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	driver, dsn := "sqlite3", ":memory:"
	if *cloud {
		driver, dsn = "mysql", cloudDSN(t)
	}

	d, err := db.OpenSQL(driver, dsn)
	require.NoError(t, err, "open %s database", driver)
	// Registered after cloudDSN's cleanup, so it runs before the drop.
	t.Cleanup(func() { d.Close() })

	n, err := d.CountCases()
	require.NoError(t, err)
	require.Zero(t, n, "new database has cases")
	return d
}
