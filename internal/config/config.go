// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the perfstore server configuration from a
// file, PERFSTORE_ environment variables and command line flags.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rainfall/perfstore/payload"
)

// EnvPrefix is the prefix of environment variables overriding
// configuration keys. PERFSTORE_DB_DSN sets db.dsn.
const EnvPrefix = "PERFSTORE"

// Config is the complete server configuration.
type Config struct {
	HTTP    HTTPConfig
	DB      DBConfig
	FS      FSConfig
	Summary SummaryConfig
	Log     LogConfig
}

type HTTPConfig struct {
	// Addr is the listen address.
	Addr string
	// MaxConns limits concurrently accepted connections. Zero means
	// no limit.
	MaxConns int
}

type DBConfig struct {
	// Driver is "sqlite3" or "mysql".
	Driver string
	DSN    string
}

type FSConfig struct {
	// Kind is "memory", "local" or "gcs".
	Kind string
	// Dir is the root directory of a local store.
	Dir string
	// Bucket is the GCS bucket name.
	Bucket string
	// CredentialsFile optionally names a service account key for GCS.
	CredentialsFile string
}

type SummaryConfig struct {
	// Format is the payload format for newly stored logs.
	Format        string
	MaxDataPoints int
	Workers       int
	CacheTTL      time.Duration
}

type LogConfig struct {
	Level string
}

// SetDefaults installs the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.maxconns", 0)
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", ":memory:")
	v.SetDefault("fs.kind", "memory")
	v.SetDefault("fs.dir", "")
	v.SetDefault("fs.bucket", "")
	v.SetDefault("fs.credentialsfile", "")
	v.SetDefault("summary.format", payload.Zstd.String())
	v.SetDefault("summary.maxdatapoints", 200)
	v.SetDefault("summary.workers", 4)
	v.SetDefault("summary.cachettl", 5*time.Minute)
	v.SetDefault("log.level", "info")
}

// New returns a viper instance with defaults and environment
// overrides installed.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the
// result. An empty path reads no file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		log.WithField("file", v.ConfigFileUsed()).Debug("loaded config")
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite3", "mysql":
	default:
		return errors.Errorf("db.driver: unknown driver %q", c.DB.Driver)
	}
	switch c.FS.Kind {
	case "memory":
	case "local":
		if c.FS.Dir == "" {
			return errors.New("fs.dir: required for local storage")
		}
	case "gcs":
		if c.FS.Bucket == "" {
			return errors.New("fs.bucket: required for gcs storage")
		}
	default:
		return errors.Errorf("fs.kind: unknown kind %q", c.FS.Kind)
	}
	if _, err := payload.ParseFormat(c.Summary.Format); err != nil {
		return errors.Wrap(err, "summary.format")
	}
	if c.Summary.MaxDataPoints <= 0 {
		return errors.Errorf("summary.maxdatapoints: must be positive, got %d", c.Summary.MaxDataPoints)
	}
	if c.Summary.Workers <= 0 {
		return errors.Errorf("summary.workers: must be positive, got %d", c.Summary.Workers)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// PayloadFormat returns the parsed storage format.
func (c *Config) PayloadFormat() payload.Format {
	f, _ := payload.ParseFormat(c.Summary.Format)
	return f
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Log.Level)
	return l
}
