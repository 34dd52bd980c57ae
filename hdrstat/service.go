// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hdrstat summarizes interval histogram logs and compares the
// summaries.
//
// A summary (HdrData) holds per-interval throughput, latency and
// percentile series plus the percentile distribution over the whole
// log. A single log is summarized by compacting it to a bounded number
// of intervals; several logs recorded concurrently are aligned on
// their common time range and merged bucket by bucket.
package hdrstat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rainfall/perfstore/hdrlog"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxDataPoints is the interval budget used by callers that
// have no preference.
const DefaultMaxDataPoints = 200

// A Service computes summaries on a bounded pool of workers. Each call
// blocks its caller until the summary is complete. A Service is safe
// for concurrent use by multiple goroutines.
type Service struct {
	log     log.FieldLogger
	metrics *metrics
	workers int

	jobs      chan func()
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// An Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger of the service.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithWorkers sets the number of summaries computed at once. The
// default is 1.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRegisterer registers the service metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(s *Service) { s.metrics.register(r) }
}

// NewService starts a Service. Call Close to stop its workers.
func NewService(opts ...Option) *Service {
	s := &Service{
		log:     log.StandardLogger(),
		metrics: newMetrics(),
		workers: 1,
		jobs:    make(chan func()),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

func (s *Service) work() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.jobs:
			job()
		case <-s.done:
			return
		}
	}
}

// Close stops the workers after the summaries in progress complete.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// A result is what a job hands back to its caller.
type result struct {
	d   *HdrData
	err error
}

// run executes f on a worker and waits for its result. If ctx is done
// first, run returns ctx.Err() and the result of f is discarded.
func (s *Service) run(ctx context.Context, op string, f func(l log.FieldLogger) (*HdrData, error)) (*HdrData, error) {
	l := s.log.WithField("op", op)
	res := make(chan result, 1)
	job := func() {
		start := time.Now()
		var r result
		defer func() {
			if v := recover(); v != nil {
				err, ok := v.(error)
				if !ok {
					err = fmt.Errorf("%v", v)
				}
				r = result{err: &Error{Kind: Fatal, Op: op, Err: errors.WithStack(err)}}
			}
			s.metrics.observe(op, r.err, time.Since(start))
			res <- r
		}()
		r.d, r.err = f(l)
	}
	select {
	case s.jobs <- job:
	case <-s.done:
		return nil, &Error{Kind: Fatal, Op: op, Err: errClosed}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-res:
		if r.err != nil {
			l.WithError(r.err).Debug("summary failed")
		}
		return r.d, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReadSummary summarizes the log from src, compacted to at most
// maxDataPoints intervals. The log is read twice. A blank log yields a
// blank summary.
func (s *Service) ReadSummary(ctx context.Context, src hdrlog.Source, maxDataPoints int) (*HdrData, error) {
	const op = "read"
	if err := checkMaxDataPoints(op, maxDataPoints); err != nil {
		return nil, err
	}
	return s.run(ctx, op, func(l log.FieldLogger) (*HdrData, error) {
		// The first pass sizes the compaction groups.
		n, err := hdrlog.Count(src)
		if err != nil {
			return nil, wrap(op, IOFailure, err)
		}
		rc, err := src()
		if err != nil {
			return nil, wrap(op, IOFailure, err)
		}
		defer rc.Close()
		it := compact(hdrlog.NewReader(rc, "log"), n, maxDataPoints)
		d, dropped, err := summarize(it)
		if err != nil {
			return nil, wrap(op, IOFailure, err)
		}
		if r, ok := it.(*reducer); ok {
			dropped += r.Dropped()
		}
		logDropped(l, dropped)
		l.WithFields(log.Fields{"intervals": n, "size": d.Size()}).Debug("log summarized")
		return d, nil
	})
}

// AggregateSummary summarizes several logs recorded over the same
// period. The logs are restricted to their common time range, which is
// divided into maxDataPoints buckets; the histograms of all logs
// falling in the same bucket are summed. Each log is read twice.
//
// An empty srcs yields a blank summary. A blank log among srcs is an
// InvalidArgument error.
func (s *Service) AggregateSummary(ctx context.Context, srcs []hdrlog.Source, maxDataPoints int) (*HdrData, error) {
	const op = "aggregate"
	if err := checkMaxDataPoints(op, maxDataPoints); err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return blankHdrData(), nil
	}
	return s.run(ctx, op, func(l log.FieldLogger) (*HdrData, error) {
		w, err := align(op, srcs, maxDataPoints)
		if err != nil {
			return nil, err
		}
		l = l.WithField("window", w)
		m, err := newMerger(srcs, w)
		if err != nil {
			return nil, wrap(op, IOFailure, err)
		}
		defer m.Close()
		m.onBucket = func(bucket, intervals, sources int) {
			if sources < len(srcs) {
				l.Debugf("bucket %d: %d intervals from %d of %d logs", bucket, intervals, sources, len(srcs))
			}
		}
		d, dropped, err := summarize(m)
		if err != nil {
			if errors.Is(err, errUnordered) {
				return nil, invalidArgument(op, err)
			}
			return nil, wrap(op, IOFailure, err)
		}
		logDropped(l, dropped+m.Dropped())
		l.WithFields(log.Fields{"logs": len(srcs), "size": d.Size()}).Debug("logs aggregated")
		return d, nil
	})
}

func logDropped(l log.FieldLogger, dropped int64) {
	if dropped > 0 {
		l.Debugf("%d values below %d dropped", dropped, lowestTrackableValue)
	}
}
