// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/rainfall/perfstore/hdrstat"
	"golang.org/x/sync/errgroup"
)

// summarizeRuns aggregates the summaries of operation for every run in
// runIDs concurrently. The result is in the order of runIDs.
func (a *App) summarizeRuns(ctx context.Context, runIDs []int64, operation string, maxDataPoints int) ([]*hdrstat.HdrData, error) {
	ds := make([]*hdrstat.HdrData, len(runIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range runIDs {
		i, id := i, id
		g.Go(func() error {
			if _, err := a.DB.Run(gctx, id); err != nil {
				return err
			}
			d, err := a.summarizeRun(gctx, id, operation, maxDataPoints)
			ds[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

// comparison is the response to GET /compare.
type comparison struct {
	Runs      []int64                  `json:"runs"`
	Operation string                   `json:"operation"`
	Summaries []*hdrstat.HdrData       `json:"summaries"`
	PValues   []hdrstat.PairComparison `json:"pValues"`
}

// compare serves the summaries of one operation over several runs,
// with the p-value of every pair of runs. Pairs refer to runs by
// their position in the runs parameter.
func (a *App) compare(w http.ResponseWriter, r *http.Request) {
	ids, err := parseRunIDs(r.FormValue("runs"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	op := r.FormValue("operation")
	if op == "" {
		a.fail(w, r, badRequest("missing operation parameter"))
		return
	}
	points, err := a.maxDataPoints(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ds, err := a.summarizeRuns(r.Context(), ids, op, points)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	pvalues := hdrstat.ComparePairs(ds)
	if pvalues == nil {
		pvalues = []hdrstat.PairComparison{}
	}
	writeJSON(w, http.StatusOK, comparison{Runs: ids, Operation: op, Summaries: ds, PValues: pvalues})
}

// compareOperations serves the operations recorded by every run in
// the runs parameter.
func (a *App) compareOperations(w http.ResponseWriter, r *http.Request) {
	ids, err := parseRunIDs(r.FormValue("runs"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	count := make(map[string]int)
	for _, id := range ids {
		ops, err := a.operations(r.Context(), id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		for _, op := range ops {
			count[op]++
		}
	}
	common := []string{}
	for op, n := range count {
		if n == len(ids) {
			common = append(common, op)
		}
	}
	sort.Strings(common)
	writeJSON(w, http.StatusOK, common)
}

// regression compares every operation of a run with the last baseline
// run of its case and reports the operations whose p-value is below
// the threshold parameter.
func (a *App) regression(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	threshold, err := strconv.ParseFloat(r.FormValue("threshold"), 64)
	if err != nil {
		a.fail(w, r, badRequest("invalid threshold %q", r.FormValue("threshold")))
		return
	}
	report, err := a.checkRegression(r.Context(), runID, threshold)
	a.reply(w, r, report, err)
}

func (a *App) checkRegression(ctx context.Context, runID int64, threshold float64) (*hdrstat.ChangeReport, error) {
	run, err := a.DB.Run(ctx, runID)
	if err != nil {
		return nil, err
	}
	baselineID, ok, err := a.DB.LastBaselineID(ctx, run.CaseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return hdrstat.NoBaseline(threshold), nil
	}
	current, err := a.summarizeOperations(ctx, runID)
	if err != nil {
		return nil, err
	}
	baseline, err := a.summarizeOperations(ctx, baselineID)
	if err != nil {
		return nil, err
	}
	return hdrstat.CheckRegression(baselineID, current, baseline, threshold), nil
}

// summarizeOperations returns the summary of every operation of the
// run runID, keyed by operation.
func (a *App) summarizeOperations(ctx context.Context, runID int64) (map[string]*hdrstat.HdrData, error) {
	ops, err := a.DB.OperationsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	ds := make([]*hdrstat.HdrData, len(ops))
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			d, err := a.summarizeRun(gctx, runID, op, a.MaxDataPoints)
			ds[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m := make(map[string]*hdrstat.HdrData, len(ops))
	for i, op := range ops {
		m[op] = ds[i]
	}
	return m, nil
}
