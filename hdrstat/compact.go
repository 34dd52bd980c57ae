// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import "github.com/HdrHistogram/hdrhistogram-go"

// compact bounds the n histograms produced by it to at most
// maxDataPoints. If n is already small enough it is returned
// unchanged. Otherwise the sequence is split into exactly
// maxDataPoints runs of consecutive histograms whose lengths differ by
// at most one, and each run is summed into one histogram.
//
// Runs are read and summed as the returned iterator advances, so only
// one run is held in memory. If it ends before n histograms, the
// remaining runs are empty and omitted.
func compact(it histogramIter, n, maxDataPoints int) histogramIter {
	if n <= maxDataPoints {
		return it
	}
	return &reducer{it: it, n: n, groups: maxDataPoints}
}

// reducer sums runs of consecutive histograms.
type reducer struct {
	it      histogramIter
	n       int
	groups  int
	next    int
	cur     *hdrhistogram.Histogram
	dropped int64
}

// bounds returns the half-open range of positions summed into group i.
func (r *reducer) bounds(i int) (lo, hi int) {
	n := int64(r.n)
	return int(int64(i) * n / int64(r.groups)), int(int64(i+1) * n / int64(r.groups))
}

func (r *reducer) Scan() bool {
	r.cur = nil
	if r.next >= r.groups {
		return false
	}
	lo, hi := r.bounds(r.next)
	r.next++
	acc := newAccumulator()
	for i := lo; i < hi && r.it.Scan(); i++ {
		acc.add(r.it.Histogram())
	}
	if acc.n < hi-lo {
		r.next = r.groups
	}
	if acc.n == 0 {
		return false
	}
	r.dropped += acc.dropped
	r.cur = acc.h
	return true
}

func (r *reducer) Histogram() *hdrhistogram.Histogram {
	return r.cur
}

func (r *reducer) Err() error {
	return r.it.Err()
}

// Dropped returns the number of values that fell outside the
// trackable range of the summed histograms.
func (r *reducer) Dropped() int64 {
	return r.dropped
}
