// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/hdrlog/hdrlogtest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	l, _ := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	s := NewService(append([]Option{WithLogger(l)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func TestReadSummaryCompaction(t *testing.T) {
	s := newTestService(t)
	hs := hdrlogtest.Series(testStart, 1802, func(i int) []int64 {
		return []int64{int64(1000 + i%50)}
	})
	src := hdrlogtest.Source(t, hs...)
	ctx := context.Background()

	full, err := s.ReadSummary(ctx, src, 2000)
	require.NoError(t, err)
	assert.Equal(t, 1802, full.Size())

	small, err := s.ReadSummary(ctx, src, 100)
	require.NoError(t, err)
	require.Equal(t, 100, small.Size())
	assert.Less(t, small.StartTimes[99], full.StartTimes[1801])
	assert.Equal(t, full.RoundedPercentiles, small.RoundedPercentiles)
	assert.Equal(t, full.FixedPercentileValues, small.FixedPercentileValues)

	for _, d := range []*HdrData{full, small} {
		assert.Len(t, d.TPS, d.Size())
		assert.Len(t, d.Means, d.Size())
		assert.Len(t, d.Errors, d.Size())
		for _, p := range Percentiles {
			assert.Len(t, d.Timed(p), d.Size())
		}
		for i := 1; i < d.Size(); i++ {
			assert.Less(t, d.StartTimes[i-1], d.StartTimes[i])
		}
	}
}

func TestReadSummaryBlank(t *testing.T) {
	s := newTestService(t)
	d, err := s.ReadSummary(context.Background(), hdrlog.BytesSource(nil), DefaultMaxDataPoints)
	require.NoError(t, err)
	assert.Equal(t, blankHdrData(), d)
	assert.Equal(t, 0, d.Size())
}

func TestMaxDataPointsNotPositive(t *testing.T) {
	s := newTestService(t)
	var opened atomic.Int32
	src := func() (io.ReadCloser, error) {
		opened.Add(1)
		return hdrlog.BytesSource(nil)()
	}
	ctx := context.Background()

	for _, n := range []int{0, -1} {
		_, err := s.ReadSummary(ctx, src, n)
		assert.True(t, IsInvalidArgument(err), "ReadSummary(%d): %v", n, err)
		_, err = s.AggregateSummary(ctx, []hdrlog.Source{src}, n)
		assert.True(t, IsInvalidArgument(err), "AggregateSummary(%d): %v", n, err)
	}
	assert.EqualValues(t, 0, opened.Load(), "source opened")
}

func TestReadSummaryOpenError(t *testing.T) {
	s := newTestService(t)
	boom := errors.New("gone")
	_, err := s.ReadSummary(context.Background(), func() (io.ReadCloser, error) { return nil, boom }, 10)
	assert.Equal(t, IOFailure, KindOf(err))
	assert.ErrorIs(t, err, boom)
}

func TestAggregateSummaryNoLogs(t *testing.T) {
	s := newTestService(t)
	d, err := s.AggregateSummary(context.Background(), nil, DefaultMaxDataPoints)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Size())
	assert.Equal(t, make([]int64, 10), d.FixedPercentileValues)
}

func TestAggregateSummaryBlankLog(t *testing.T) {
	s := newTestService(t)
	full := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 10, hdrlogtest.Constant(1000, 1))...)
	_, err := s.AggregateSummary(context.Background(), []hdrlog.Source{full, hdrlog.BytesSource(nil)}, 10)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "cannot aggregate a blank log")
}

func TestAggregateSummaryUnordered(t *testing.T) {
	s := newTestService(t)
	bad := hdrlogtest.Source(t,
		hdrlogtest.Interval(testStart, 1000, 1000),
		hdrlogtest.Interval(testStart+2000, 1000, 1000),
		hdrlogtest.Interval(testStart+1000, 1000, 1000),
		hdrlogtest.Interval(testStart+3000, 1000, 1000),
	)
	_, err := s.AggregateSummary(context.Background(), []hdrlog.Source{bad}, 10)
	assert.True(t, IsInvalidArgument(err), "%v", err)
}

// shiftedLogs returns four logs covering slightly different ranges
// around the same minute.
func shiftedLogs(t *testing.T) []hdrlog.Source {
	return []hdrlog.Source{
		hdrlogtest.Source(t, hdrlogtest.Series(testStart-5000, 65, func(i int) []int64 { return []int64{1000, int64(2000 + i)} })...),
		hdrlogtest.Source(t, hdrlogtest.Series(testStart, 60, hdrlogtest.Constant(1500, 3))...),
		hdrlogtest.Source(t, hdrlogtest.Series(testStart+500, 60, func(i int) []int64 { return []int64{int64(900 + 10*i)} })...),
		hdrlogtest.Source(t, hdrlogtest.Series(testStart, 70, hdrlogtest.Constant(4000, 1))...),
	}
}

func TestAggregateSummaryOrderIndependent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	logs := shiftedLogs(t)

	want, err := s.AggregateSummary(ctx, logs, DefaultMaxDataPoints)
	require.NoError(t, err)
	assert.Equal(t, 59, want.Size())

	for _, perm := range [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}} {
		srcs := make([]hdrlog.Source, len(perm))
		for i, j := range perm {
			srcs[i] = logs[j]
		}
		got, err := s.AggregateSummary(ctx, srcs, DefaultMaxDataPoints)
		require.NoError(t, err)
		assert.Equal(t, want, got, "order %v", perm)
	}
}

func TestAggregateSummaryCommutes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	logs := shiftedLogs(t)[:2]
	ab, err := s.AggregateSummary(ctx, logs, 20)
	require.NoError(t, err)
	ba, err := s.AggregateSummary(ctx, []hdrlog.Source{logs[1], logs[0]}, 20)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.LessOrEqual(t, ab.Size(), 20)
}

func TestTimedPercentilesOrdered(t *testing.T) {
	s := newTestService(t)
	d, err := s.AggregateSummary(context.Background(), shiftedLogs(t), 30)
	require.NoError(t, err)
	for i := 0; i < d.Size(); i++ {
		for k := 1; k < len(Percentiles); k++ {
			lo, hi := Percentiles[k-1], Percentiles[k]
			assert.LessOrEqual(t, d.Timed(lo)[i], d.Timed(hi)[i], "interval %d: %s > %s", i, lo, hi)
		}
	}
}

func TestServicePanic(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.ReadSummary(ctx, func() (io.ReadCloser, error) { panic("corrupt") }, 10)
	require.Error(t, err)
	assert.Equal(t, Fatal, KindOf(err))
	assert.Contains(t, err.Error(), "corrupt")

	// The worker survives.
	d, err := s.ReadSummary(ctx, hdrlogtest.Source(t, hdrlogtest.Interval(testStart, 1000, 7)), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Size())
}

func TestServiceClosed(t *testing.T) {
	s := NewService()
	s.Close()
	s.Close()
	_, err := s.ReadSummary(context.Background(), hdrlog.BytesSource(nil), 10)
	assert.Equal(t, Fatal, KindOf(err))
	assert.ErrorIs(t, err, errClosed)
}

func TestServiceConcurrent(t *testing.T) {
	s := newTestService(t, WithWorkers(3))
	src := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 300, hdrlogtest.Constant(1200, 4))...)
	want, err := s.ReadSummary(context.Background(), src, 50)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*HdrData, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.ReadSummary(context.Background(), src, 50)
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestServiceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestService(t, WithRegisterer(reg))
	ctx := context.Background()
	_, err := s.ReadSummary(ctx, hdrlog.BytesSource(nil), 10)
	require.NoError(t, err)
	_, err = s.AggregateSummary(ctx, []hdrlog.Source{hdrlog.BytesSource(nil)}, 10)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.summaries.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.summaries.WithLabelValues("aggregate", InvalidArgument.String())))
}
