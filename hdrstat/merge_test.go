// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"testing"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/hdrlog/hdrlogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeAll(t *testing.T, srcs []hdrlog.Source, maxDataPoints int) []*hdrhistogram.Histogram {
	t.Helper()
	w, err := align("test", srcs, maxDataPoints)
	require.NoError(t, err)
	m, err := newMerger(srcs, w)
	require.NoError(t, err)
	defer m.Close()
	return collect(t, m)
}

func TestMergeBuckets(t *testing.T) {
	// Two logs over the same 10 seconds, 5 buckets of 2 seconds.
	a := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 11, hdrlogtest.Constant(1000, 1))...)
	b := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 11, hdrlogtest.Constant(3000, 2))...)

	got := mergeAll(t, []hdrlog.Source{a, b}, 5)
	require.Len(t, got, 5)
	for i, h := range got {
		assert.EqualValues(t, testStart+int64(i)*2000, h.StartTimeMs(), "bucket %d start", i)
		assert.EqualValues(t, testStart+int64(i)*2000+2000, h.EndTimeMs(), "bucket %d end", i)
		assert.EqualValues(t, 6, h.TotalCount(), "bucket %d count", i)
		assert.Empty(t, h.Tag(), "bucket %d tag", i)
	}
}

func TestMergeSkipsEmptyBuckets(t *testing.T) {
	// Intervals at 0, 1, 9 and 10 seconds leave the middle buckets
	// empty.
	hs := []*hdrhistogram.Histogram{
		hdrlogtest.Interval(testStart, 1000, 1000),
		hdrlogtest.Interval(testStart+1000, 1000, 1000),
		hdrlogtest.Interval(testStart+9000, 1000, 1000),
		hdrlogtest.Interval(testStart+10000, 1000, 1000),
	}
	got := mergeAll(t, []hdrlog.Source{hdrlogtest.Source(t, hs...)}, 10)
	require.Len(t, got, 3)
	assert.EqualValues(t, testStart, got[0].StartTimeMs())
	assert.EqualValues(t, testStart+1000, got[1].StartTimeMs())
	assert.EqualValues(t, testStart+9000, got[2].StartTimeMs())
}

func TestMergeSourceCount(t *testing.T) {
	a := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 5, hdrlogtest.Constant(1000, 1))...)
	// b has no interval in the second bucket.
	b := hdrlogtest.Source(t,
		hdrlogtest.Interval(testStart, 1000, 1000),
		hdrlogtest.Interval(testStart+4000, 1000, 1000),
	)
	srcs := []hdrlog.Source{a, b}
	w, err := align("test", srcs, 2)
	require.NoError(t, err)
	m, err := newMerger(srcs, w)
	require.NoError(t, err)
	defer m.Close()

	type bucket struct{ intervals, sources int }
	var got []bucket
	m.onBucket = func(_, intervals, sources int) {
		got = append(got, bucket{intervals, sources})
	}
	collect(t, m)
	// The interval at 4s is at the end of the window, past the last
	// bucket.
	assert.Equal(t, []bucket{{3, 2}, {2, 1}}, got)
}

func TestMergeUnordered(t *testing.T) {
	good := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 5, hdrlogtest.Constant(1000, 1))...)
	bad := hdrlogtest.Source(t,
		hdrlogtest.Interval(testStart, 1000, 1000),
		hdrlogtest.Interval(testStart+3000, 1000, 1000),
		hdrlogtest.Interval(testStart+1000, 1000, 1000),
		hdrlogtest.Interval(testStart+4000, 1000, 1000),
	)
	srcs := []hdrlog.Source{good, bad}
	w, err := align("test", srcs, 10)
	require.NoError(t, err)
	m, err := newMerger(srcs, w)
	require.NoError(t, err)
	defer m.Close()
	for m.Scan() {
	}
	assert.ErrorIs(t, m.Err(), errUnordered)
}
