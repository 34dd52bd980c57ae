// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Hdrstat summarizes and compares interval latency histogram logs.
//
// Usage:
//
//	hdrstat [-max n] [-aggregate] [-json] a.hlog [b.hlog ...]
//
// For each input log, hdrstat prints the number of summary intervals,
// the mean throughput, the mean and range of the per-interval mean
// latency and the overall latency percentiles. Logs longer than -max
// intervals are compacted first.
//
// With -aggregate, the inputs are aligned on a common time window and
// merged into a single summary, as if they were recorded by parallel
// clients of one test.
//
// Otherwise, when there are two or more inputs, hdrstat also prints
// the Kolmogorov-Smirnov p-value of every pair of logs. Small p-values
// indicate that two logs come from different latency distributions.
//
// The -json option prints the summaries and p-values as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/aclements/go-moremath/stats"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/hdrstat"
)

var exit = os.Exit // replaced during testing

func usage() {
	fmt.Fprintf(os.Stderr, "usage: hdrstat [options] a.hlog [b.hlog ...]\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	exit(2)
}

var (
	flagMax       = flag.Int("max", hdrstat.DefaultMaxDataPoints, "compact each summary to at most `n` intervals")
	flagAggregate = flag.Bool("aggregate", false, "merge all inputs into one summary")
	flagJSON      = flag.Bool("json", false, "print results as JSON")
)

func main() {
	log.SetPrefix("hdrstat: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
	}

	opts := options{maxDataPoints: *flagMax, aggregate: *flagAggregate, json: *flagJSON}
	if err := run(context.Background(), os.Stdout, flag.Args(), opts); err != nil {
		log.Print(err)
		exit(1)
	}
}

type options struct {
	maxDataPoints int
	aggregate     bool
	json          bool
}

// A result is the output of one hdrstat invocation.
type result struct {
	Names     []string                 `json:"names"`
	Summaries []*hdrstat.HdrData       `json:"summaries"`
	PValues   []hdrstat.PairComparison `json:"pvalues,omitempty"`
}

func run(ctx context.Context, w io.Writer, files []string, opts options) error {
	svc := hdrstat.NewService(hdrstat.WithWorkers(1))
	defer svc.Close()

	srcs := make([]hdrlog.Source, len(files))
	for i, f := range files {
		srcs[i] = hdrlog.FileSource(f)
	}

	var res result
	if opts.aggregate {
		d, err := svc.AggregateSummary(ctx, srcs, opts.maxDataPoints)
		if err != nil {
			return err
		}
		res.Names = []string{"aggregate"}
		res.Summaries = []*hdrstat.HdrData{d}
	} else {
		for i, src := range srcs {
			d, err := svc.ReadSummary(ctx, src, opts.maxDataPoints)
			if err != nil {
				return errors.Wrap(err, files[i])
			}
			res.Names = append(res.Names, filepath.Base(files[i]))
			res.Summaries = append(res.Summaries, d)
		}
		if len(res.Summaries) > 1 {
			res.PValues = hdrstat.ComparePairs(res.Summaries)
		}
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		return enc.Encode(res)
	}
	printSummaries(w, res)
	if len(res.PValues) > 0 {
		fmt.Fprintln(w)
		printPValues(w, res)
	}
	return nil
}

func printSummaries(w io.Writer, res result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"log", "intervals", "tps", "mean(ms)", "min mean", "max mean"}
	for _, p := range hdrstat.Percentiles {
		header = append(header, p.String()+"(ms)")
	}
	t.AppendHeader(header)
	for i, d := range res.Summaries {
		row := table.Row{res.Names[i], d.Size()}
		if d.Size() == 0 {
			row = append(row, "-", "-", "-", "-")
		} else {
			lo, hi := stats.Sample{Xs: d.Means}.Bounds()
			row = append(row,
				fmt.Sprintf("%.1f", stats.Mean(d.TPS)),
				fmt.Sprintf("%.3f", stats.Mean(d.Means)),
				fmt.Sprintf("%.3f", lo),
				fmt.Sprintf("%.3f", hi))
		}
		for _, p := range hdrstat.Percentiles {
			row = append(row, fmt.Sprintf("%.3f", float64(d.ValueAt(p))/1e6))
		}
		t.AppendRow(row)
	}
	t.Render()
}

func printPValues(w io.Writer, res result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"left", "right", "p"})
	for _, pc := range res.PValues {
		t.AppendRow(table.Row{res.Names[pc.Left], res.Names[pc.Right], fmt.Sprintf("%.4g", pc.P)})
	}
	t.Render()
}
