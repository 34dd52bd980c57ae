// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/net/netutil"
	"google.golang.org/api/option"

	"github.com/rainfall/perfstore/hdrstat"
	"github.com/rainfall/perfstore/internal/config"
	"github.com/rainfall/perfstore/storage/app"
	"github.com/rainfall/perfstore/storage/db"
	_ "github.com/rainfall/perfstore/storage/db/sqlite3"
	"github.com/rainfall/perfstore/storage/fs"
	"github.com/rainfall/perfstore/storage/fs/gcs"
	"github.com/rainfall/perfstore/storage/fs/local"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storage API over HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			c, err := config.Load(v, path)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}
	cmd.Flags().String("addr", ":8080", "serve HTTP on `address`")
	cmd.Flags().Int("max-conns", 0, "accept at most `n` concurrent connections")
	cmd.Flags().String("db-driver", "sqlite3", "database `driver`: sqlite3 or mysql")
	cmd.Flags().String("db-dsn", ":memory:", "database `dsn`")
	cmd.Flags().String("fs", "memory", "log storage `kind`: memory, local or gcs")
	return cmd
}

// flagKeys maps configuration keys to the serve flags that override
// them.
var flagKeys = []struct{ key, flag string }{
	{"http.addr", "addr"},
	{"http.maxconns", "max-conns"},
	{"db.driver", "db-driver"},
	{"db.dsn", "db-dsn"},
	{"fs.kind", "fs"},
}

// bindFlags makes the serve flags in flags override the matching
// configuration keys of v.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := flags.Lookup(fk.flag)
		if f == nil {
			return errors.Errorf("no flag --%s for %s", fk.flag, fk.key)
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return errors.Wrapf(err, "binding --%s", fk.flag)
		}
	}
	return nil
}

func serve(ctx context.Context, c *config.Config) error {
	log.SetLevel(c.LogLevel())

	d, err := db.OpenSQL(c.DB.Driver, c.DB.DSN)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer d.Close()

	store, err := openFS(ctx, c.FS)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	summaries := hdrstat.NewService(
		hdrstat.WithWorkers(c.Summary.Workers),
		hdrstat.WithLogger(log.WithField("component", "hdrstat")),
		hdrstat.WithRegisterer(reg),
	)
	defer summaries.Close()

	a := &app.App{
		DB:            d,
		FS:            store,
		Summaries:     summaries,
		Format:        c.PayloadFormat(),
		MaxDataPoints: c.Summary.MaxDataPoints,
		CacheTTL:      c.Summary.CacheTTL,
		Log:           log.WithField("component", "app"),
	}
	mux := http.NewServeMux()
	a.RegisterOnMux(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	l, err := net.Listen("tcp", c.HTTP.Addr)
	if err != nil {
		return err
	}
	if c.HTTP.MaxConns > 0 {
		l = netutil.LimitListener(l, c.HTTP.MaxConns)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 30 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	log.WithFields(log.Fields{
		"addr": l.Addr().String(),
		"db":   c.DB.Driver,
		"fs":   c.FS.Kind,
	}).Info("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openFS(ctx context.Context, c config.FSConfig) (fs.FS, error) {
	switch c.Kind {
	case "memory":
		return fs.NewMemFS(), nil
	case "local":
		return local.NewFS(c.Dir)
	case "gcs":
		var opts []option.ClientOption
		if c.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
		}
		return gcs.NewFS(ctx, c.Bucket, opts...)
	}
	return nil, errors.Errorf("unknown storage kind %q", c.Kind)
}
