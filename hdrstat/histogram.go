// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// significantDigits is the value precision of every histogram
	// created by this package.
	significantDigits = 3

	lowestTrackableValue = 1

	// defaultHighestTrackableValue is the initial range of an
	// accumulator. It grows to the widest range of the histograms
	// added to it.
	defaultHighestTrackableValue = int64(time.Hour)
)

// An accumulator sums interval histograms. Values are latencies in
// nanoseconds. The sum covers the union of the time ranges of the
// histograms added to it.
type accumulator struct {
	h       *hdrhistogram.Histogram
	n       int
	dropped int64
}

func newAccumulator() *accumulator {
	return &accumulator{h: hdrhistogram.New(lowestTrackableValue, defaultHighestTrackableValue, significantDigits)}
}

func (a *accumulator) add(h *hdrhistogram.Histogram) {
	if a.n == 0 {
		a.h.SetStartTimeMs(h.StartTimeMs())
		a.h.SetEndTimeMs(h.EndTimeMs())
	} else {
		if h.StartTimeMs() < a.h.StartTimeMs() {
			a.h.SetStartTimeMs(h.StartTimeMs())
		}
		if h.EndTimeMs() > a.h.EndTimeMs() {
			a.h.SetEndTimeMs(h.EndTimeMs())
		}
	}
	if hi := h.HighestTrackableValue(); hi > a.h.HighestTrackableValue() {
		a.grow(hi)
	}
	a.n++
	a.dropped += a.h.Merge(h)
}

// grow widens the range of the sum to highest. Every value already
// recorded fits the wider histogram.
func (a *accumulator) grow(highest int64) {
	wide := hdrhistogram.New(lowestTrackableValue, highest, significantDigits)
	a.dropped += wide.Merge(a.h)
	wide.SetStartTimeMs(a.h.StartTimeMs())
	wide.SetEndTimeMs(a.h.EndTimeMs())
	a.h = wide
}

// valueAt returns the value of h at fraction q of its samples, for q
// in [0, 1]. It is the highest equivalent value of the smallest
// sample whose rank is at least max(ceil(q*n), 1); at q == 0 it is
// the lowest equivalent value of the minimum. An empty histogram
// yields 0.
//
// Histogram.ValueAtQuantile rounds the rank to the nearest sample
// and returns 0 at quantile 0, so it is only called with an exact
// rank.
func valueAt(h *hdrhistogram.Histogram, q float64) int64 {
	n := h.TotalCount()
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return h.Min()
	}
	// Step just below q so that exact products such as 0.1*10 do
	// not round up to the next rank.
	pct := math.Min(math.Nextafter(100*q, math.Inf(-1)), 100)
	rank := int64(math.Ceil(pct / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return h.ValueAtQuantile(100 * float64(rank) / float64(n))
}

// histogramIter is a finite, ordered producer of interval histograms.
// *hdrlog.Reader implements it.
type histogramIter interface {
	Scan() bool
	Histogram() *hdrhistogram.Histogram
	Err() error
}

// sliceIter iterates over histograms already in memory.
type sliceIter struct {
	hs  []*hdrhistogram.Histogram
	pos int
}

func newSliceIter(hs []*hdrhistogram.Histogram) *sliceIter {
	return &sliceIter{hs: hs, pos: -1}
}

func (it *sliceIter) Scan() bool {
	if it.pos+1 >= len(it.hs) {
		it.pos = len(it.hs)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIter) Histogram() *hdrhistogram.Histogram {
	return it.hs[it.pos]
}

func (it *sliceIter) Err() error {
	return nil
}

// roundTime rounds an epoch time in milliseconds down to the second.
func roundTime(ms int64) int64 {
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s * 1000
}
