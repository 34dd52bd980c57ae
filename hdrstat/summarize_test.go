// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"testing"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rainfall/perfstore/hdrlog/hdrlogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	ms := int64(1e6)
	hs := []*hdrhistogram.Histogram{
		hdrlogtest.Interval(testStart, 1000, 1*ms, 1*ms, 1*ms, 1*ms),
		hdrlogtest.Interval(testStart+1000, 2000, 2*ms, 4*ms),
	}
	d, dropped, err := summarize(newSliceIter(hs))
	require.NoError(t, err)
	assert.Zero(t, dropped)

	assert.Equal(t, []int64{testStart, testStart + 1000}, d.StartTimes)
	assert.Equal(t, []float64{4, 1}, d.TPS)
	assert.InDelta(t, 1.0, d.Means[0], 0.01)
	assert.InDelta(t, 3.0, d.Means[1], 0.01)
	assert.InDelta(t, 0.0, d.Errors[0], 0.01)
	assert.InDelta(t, 1.0, d.Errors[1], 0.01)

	assert.InDelta(t, float64(ms), d.Timed(Median)[0], float64(ms)/100)
	assert.InDelta(t, float64(4*ms), d.Timed(Max)[1], float64(4*ms)/100)

	assert.InDelta(t, ms, d.ValueAt(Median), float64(ms)/100)
	assert.InDelta(t, 4*ms, d.ValueAt(Max), float64(4*ms)/100)

	require.Len(t, d.FixedPercentileValues, 10)
	for i := 1; i < len(d.FixedPercentileValues); i++ {
		assert.LessOrEqual(t, d.FixedPercentileValues[i-1], d.FixedPercentileValues[i])
	}

	require.NotEmpty(t, d.PercentilePoints)
	require.Len(t, d.PercentileValues, len(d.PercentilePoints))
	assert.Equal(t, 0.0, d.PercentilePoints[0])
	assert.Equal(t, 1.0, d.PercentilePoints[len(d.PercentilePoints)-1])
	for i := 1; i < len(d.PercentilePoints); i++ {
		assert.LessOrEqual(t, d.PercentilePoints[i-1], d.PercentilePoints[i])
		assert.LessOrEqual(t, d.PercentileValues[i-1], d.PercentileValues[i])
	}
}

func TestSummarizeZeroDuration(t *testing.T) {
	d, _, err := summarize(newSliceIter([]*hdrhistogram.Histogram{
		hdrlogtest.Interval(testStart, 0, 1000),
	}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, d.TPS)
}

func TestBlankHdrData(t *testing.T) {
	d := blankHdrData()
	assert.Equal(t, 0, d.Size())
	assert.Equal(t, PercentileValues{}, d.RoundedPercentiles)
	assert.Equal(t, make([]int64, 10), d.FixedPercentileValues)
	assert.Empty(t, d.PercentilePoints)
	assert.Empty(t, d.PercentileValues)
	for _, p := range Percentiles {
		assert.NotNil(t, d.Timed(p), "%s", p)
		assert.Empty(t, d.Timed(p), "%s", p)
	}
}

func TestValueAt(t *testing.T) {
	ms := int64(1e6)
	h := hdrlogtest.Interval(testStart, 1000, 1*ms, 2*ms, 3*ms, 4*ms, 5*ms, 6*ms, 7*ms, 8*ms, 9*ms, 10*ms)
	at := func(v int64) int64 { return h.ValueAtQuantile(100 * float64(v) / 10) }

	// Quantile 0 is the lowest equivalent value of the minimum.
	assert.Equal(t, h.Min(), valueAt(h, 0))
	assert.True(t, h.ValuesAreEquivalent(ms, valueAt(h, 0)))
	// The rank is ceil(q*n): 0.9375 of 10 samples is the 10th.
	assert.Equal(t, at(10), valueAt(h, 0.9375))
	assert.Equal(t, at(1), valueAt(h, 0.1))
	assert.Equal(t, at(5), valueAt(h, 0.5))
	assert.Equal(t, at(6), valueAt(h, 0.51))
	assert.Equal(t, at(10), valueAt(h, 1))

	assert.Zero(t, valueAt(hdrhistogram.New(1, 1000, 3), 0))
	assert.Zero(t, valueAt(hdrhistogram.New(1, 1000, 3), 0.5))
}

func TestFixedPercentileValuesConstant(t *testing.T) {
	const v = 1000000
	hs := hdrlogtest.Series(testStart, 5, hdrlogtest.Constant(v, 10))
	d, _, err := summarize(newSliceIter(hs))
	require.NoError(t, err)

	h := hdrlogtest.Interval(testStart, 1000, v)
	require.Len(t, d.FixedPercentileValues, 10)
	assert.Equal(t, h.Min(), d.FixedPercentileValues[0])
	for i, x := range d.FixedPercentileValues[1:] {
		assert.Equal(t, h.Max(), x, "point %d", i+1)
	}
}
