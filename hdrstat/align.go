// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"fmt"
	"math/bits"

	"github.com/rainfall/perfstore/hdrlog"
)

// A window is the time range shared by several histogram logs,
// divided into equal-width buckets. Times are epoch milliseconds
// rounded down to the second.
type window struct {
	start, end int64
	buckets    int
}

// bucket returns the bucket of rounded start time t. It reports false
// if t is outside [start, end] or falls past the last bucket.
func (w window) bucket(t int64) (int, bool) {
	if t < w.start || t > w.end {
		return 0, false
	}
	// floor((t - start) / ((end - start) / buckets)), exactly.
	hi, lo := bits.Mul64(uint64(t-w.start), uint64(w.buckets))
	q, _ := bits.Div64(hi, lo, uint64(w.end-w.start))
	if q >= uint64(w.buckets) {
		return 0, false
	}
	return int(q), true
}

func (w window) String() string {
	return fmt.Sprintf("[%d, %d]/%d", w.start, w.end, w.buckets)
}

// logRange scans the log from src and returns the rounded start times
// of its first and last intervals. ok is false if the log is blank.
func logRange(src hdrlog.Source, name string) (first, last int64, ok bool, err error) {
	rc, err := src()
	if err != nil {
		return 0, 0, false, err
	}
	defer rc.Close()
	r := hdrlog.NewReader(rc, name)
	for r.Scan() {
		t := roundTime(r.Histogram().StartTimeMs())
		if !ok {
			first, ok = t, true
		}
		last = t
	}
	return first, last, ok, r.Err()
}

// align computes the window shared by every log in srcs, divided into
// maxDataPoints buckets. Each log is read once.
func align(op string, srcs []hdrlog.Source, maxDataPoints int) (window, error) {
	w := window{buckets: maxDataPoints}
	for i, src := range srcs {
		first, last, ok, err := logRange(src, sourceName(i))
		if err != nil {
			return w, wrap(op, IOFailure, err)
		}
		if !ok {
			return w, invalidArgument(op, fmt.Errorf("%s: %w", sourceName(i), errBlankLog))
		}
		if i == 0 || first > w.start {
			w.start = first
		}
		if i == 0 || last < w.end {
			w.end = last
		}
	}
	if w.end <= w.start {
		return w, invalidArgument(op, fmt.Errorf("%w %d..%d", errEmptyRange, w.start, w.end))
	}
	return w, nil
}

func sourceName(i int) string {
	return fmt.Sprintf("log #%d", i)
}
