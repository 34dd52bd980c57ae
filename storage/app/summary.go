// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/hdrstat"
	"github.com/rainfall/perfstore/payload"
	"github.com/rainfall/perfstore/storage/db"
)

// outputSource returns a Source over the log of o. The log is fetched
// and decompressed once, on first use.
func (a *App) outputSource(ctx context.Context, o *db.Output) hdrlog.Source {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func() (io.ReadCloser, error) {
		once.Do(func() {
			data, err = a.readOutput(ctx, o)
		})
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func (a *App) readOutput(ctx context.Context, o *db.Output) ([]byte, error) {
	r, err := a.FS.NewReader(ctx, o.Name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", o.Name)
	}
	return payload.Decompress(payload.Payload{Data: compressed, Format: o.Format, OriginalLength: o.Length})
}

func summaryKey(runID int64, operation string, maxDataPoints int) string {
	return fmt.Sprintf("run/%d/%d/%s", runID, maxDataPoints, operation)
}

// invalidateRun drops the cached summaries of the run runID.
func (a *App) invalidateRun(runID int64) {
	prefix := fmt.Sprintf("run/%d/", runID)
	for k := range a.summaries.Items() {
		if strings.HasPrefix(k, prefix) {
			a.summaries.Delete(k)
		}
	}
}

// summarizeRun aggregates the outputs of every job of the run runID
// for operation. A run without such outputs has a blank summary.
func (a *App) summarizeRun(ctx context.Context, runID int64, operation string, maxDataPoints int) (*hdrstat.HdrData, error) {
	key := summaryKey(runID, operation, maxDataPoints)
	if d, ok := a.summaries.Get(key); ok {
		return d.(*hdrstat.HdrData), nil
	}
	outs, err := a.DB.OutputsForOperation(ctx, runID, operation)
	if err != nil {
		return nil, err
	}
	srcs := make([]hdrlog.Source, len(outs))
	for i, o := range outs {
		srcs[i] = a.outputSource(ctx, o)
	}
	d, err := a.Summaries.AggregateSummary(ctx, srcs, maxDataPoints)
	if err != nil {
		return nil, errors.Wrapf(err, "run %d: %s", runID, operation)
	}
	a.summaries.Set(key, d, cache.DefaultExpiration)
	return d, nil
}

func (a *App) outputSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	points, err := a.maxDataPoints(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	o, err := a.DB.Output(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.Summaries.ReadSummary(r.Context(), a.outputSource(r.Context(), o), points)
	a.reply(w, r, d, err)
}

func (a *App) runOperations(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ops, err := a.operations(r.Context(), runID)
	a.reply(w, r, ops, err)
}

// operations returns the operations of an existing run.
func (a *App) operations(ctx context.Context, runID int64) ([]string, error) {
	if _, err := a.DB.Run(ctx, runID); err != nil {
		return nil, err
	}
	ops, err := a.DB.OperationsForRun(ctx, runID)
	if ops == nil {
		ops = []string{}
	}
	return ops, err
}

func (a *App) runSummary(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.requestedSummary(r, runID)
	a.reply(w, r, d, err)
}

// requestedSummary returns the summary of runID for the operation and
// max parameters of r.
func (a *App) requestedSummary(r *http.Request, runID int64) (*hdrstat.HdrData, error) {
	op := r.FormValue("operation")
	if op == "" {
		return nil, badRequest("missing operation parameter")
	}
	points, err := a.maxDataPoints(r)
	if err != nil {
		return nil, err
	}
	if _, err := a.DB.Run(r.Context(), runID); err != nil {
		return nil, err
	}
	return a.summarizeRun(r.Context(), runID, op, points)
}
