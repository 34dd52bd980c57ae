// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hdrlogtest builds interval histogram logs in memory for
// tests.
package hdrlogtest

import (
	"bytes"
	"testing"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rainfall/perfstore/hdrlog"
)

// Interval returns a histogram covering [startMs, startMs+durationMs)
// holding values, in nanoseconds.
//
// Log timestamps are stored as fractional seconds, so tests that
// compare times after a round trip should use whole seconds.
func Interval(startMs, durationMs int64, values ...int64) *hdrhistogram.Histogram {
	h := hdrhistogram.New(1, int64(time.Hour), 3)
	for _, v := range values {
		if err := h.RecordValue(v); err != nil {
			panic(err)
		}
	}
	h.SetStartTimeMs(startMs)
	h.SetEndTimeMs(startMs + durationMs)
	return h
}

// Series returns n one-second intervals starting at startMs. Interval
// i holds the values returned by values(i).
func Series(startMs int64, n int, values func(i int) []int64) []*hdrhistogram.Histogram {
	hs := make([]*hdrhistogram.Histogram, n)
	for i := range hs {
		hs[i] = Interval(startMs+int64(i)*1000, 1000, values(i)...)
	}
	return hs
}

// Log encodes hs as a log.
func Log(t testing.TB, hs ...*hdrhistogram.Histogram) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := hdrlog.NewWriter(&buf)
	for _, h := range hs {
		if err := w.Write(h); err != nil {
			t.Fatalf("writing log: %v", err)
		}
	}
	return buf.Bytes()
}

// Source returns a Source over the log of hs.
func Source(t testing.TB, hs ...*hdrhistogram.Histogram) hdrlog.Source {
	t.Helper()
	return hdrlog.BytesSource(Log(t, hs...))
}

// Constant returns a values function for Series that records v count
// times in every interval.
func Constant(v int64, count int) func(int) []int64 {
	return func(int) []int64 {
		vs := make([]int64, count)
		for i := range vs {
			vs[i] = v
		}
		return vs
	}
}
