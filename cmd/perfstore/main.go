// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Perfstore serves the latency histogram storage and summary API.
//
// Usage:
//
//	perfstore serve [--config file] [--addr address]
//
// Settings come from the optional config file and PERFSTORE_
// environment variables, such as PERFSTORE_DB_DSN.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rainfall/perfstore/internal/config"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
	if err := rootCmd(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "perfstore",
		Short:        "Latency histogram storage server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("config", "", "read settings from `file`")
	cmd.AddCommand(serveCmd(v))
	return cmd
}
