// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"math"
	"testing"

	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/hdrlog/hdrlogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowBucket(t *testing.T) {
	w := window{start: 0, end: 59000, buckets: 200}
	for _, tt := range []struct {
		t      int64
		bucket int
		ok     bool
	}{
		{-1000, 0, false},
		{0, 0, true},
		{1000, 3, true},
		{2000, 6, true},
		{58000, 196, true},
		{59000, 0, false}, // index 200 is past the last bucket
		{60000, 0, false},
	} {
		b, ok := w.bucket(tt.t)
		assert.Equal(t, tt.ok, ok, "bucket(%d)", tt.t)
		if tt.ok {
			assert.Equal(t, tt.bucket, b, "bucket(%d)", tt.t)
		}
	}
}

func TestWindowBucketLargeRange(t *testing.T) {
	w := window{start: 0, end: math.MaxInt64, buckets: math.MaxInt32}
	b, ok := w.bucket(math.MaxInt64 - 1)
	require.True(t, ok)
	assert.Equal(t, math.MaxInt32-1, b)

	b, ok = w.bucket(math.MaxInt64 / 2)
	require.True(t, ok)
	assert.Equal(t, math.MaxInt32/2, b)
}

func TestAlign(t *testing.T) {
	a := hdrlogtest.Source(t, hdrlogtest.Series(testStart-5000, 30, hdrlogtest.Constant(1000, 1))...)
	b := hdrlogtest.Source(t, hdrlogtest.Series(testStart+500, 40, hdrlogtest.Constant(1000, 1))...)

	w, err := align("test", []hdrlog.Source{a, b}, 10)
	require.NoError(t, err)
	assert.Equal(t, window{start: testStart, end: testStart + 24000, buckets: 10}, w)
}

func TestAlignErrors(t *testing.T) {
	full := hdrlogtest.Source(t, hdrlogtest.Series(testStart, 10, hdrlogtest.Constant(1000, 1))...)
	later := hdrlogtest.Source(t, hdrlogtest.Series(testStart+20000, 10, hdrlogtest.Constant(1000, 1))...)
	single := hdrlogtest.Source(t, hdrlogtest.Interval(testStart, 1000, 1000))
	blank := hdrlog.BytesSource(nil)

	for name, tt := range map[string]struct {
		srcs []hdrlog.Source
		want error
	}{
		"blank":    {[]hdrlog.Source{full, blank}, errBlankLog},
		"disjoint": {[]hdrlog.Source{full, later}, errEmptyRange},
		"instant":  {[]hdrlog.Source{single}, errEmptyRange},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := align("test", tt.srcs, 10)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRoundTime(t *testing.T) {
	assert.EqualValues(t, 1000, roundTime(1999))
	assert.EqualValues(t, 2000, roundTime(2000))
	assert.EqualValues(t, -1000, roundTime(-1))
}
