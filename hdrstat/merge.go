// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"container/heap"
	"fmt"
	"io"
	"strconv"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rainfall/perfstore/hdrlog"
)

// A merger merges several time-ordered interval logs into one
// sequence with one histogram per non-empty bucket of a window.
//
// The logs are combined with a k-way merge keyed by rounded start
// time, so buckets are completed in ascending order and only the
// bucket being filled is held in memory.
type merger struct {
	w       window
	heads   headHeap
	closers []io.Closer
	last    []int64 // last rounded start time seen per source

	acc     *accumulator
	bucket  int
	sources map[string]bool // provenance tags in acc

	cur     *hdrhistogram.Histogram
	dropped int64
	err     error

	// onBucket, if non-nil, is called with every completed bucket
	// and the number of distinct sources that contributed to it.
	onBucket func(bucket, intervals, sources int)
}

// A head is the next unconsumed histogram of one source.
type head struct {
	src int
	r   *hdrlog.Reader
	h   *hdrhistogram.Histogram
	t   int64
}

type headHeap []*head

func (q headHeap) Len() int { return len(q) }
func (q headHeap) Less(i, j int) bool {
	if q[i].t != q[j].t {
		return q[i].t < q[j].t
	}
	return q[i].src < q[j].src
}
func (q headHeap) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *headHeap) Push(x interface{}) { *q = append(*q, x.(*head)) }
func (q *headHeap) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return x
}

// newMerger opens every source and positions it on its first
// histogram. The caller must Close the merger.
func newMerger(srcs []hdrlog.Source, w window) (*merger, error) {
	m := &merger{w: w, last: make([]int64, len(srcs))}
	for i, src := range srcs {
		rc, err := src()
		if err != nil {
			m.Close()
			return nil, err
		}
		m.closers = append(m.closers, rc)
		hd := &head{src: i, r: hdrlog.NewReader(rc, sourceName(i))}
		if err := m.advance(hd); err != nil {
			m.Close()
			return nil, err
		}
	}
	heap.Init(&m.heads)
	return m, nil
}

// advance reads the next histogram of hd's source and pushes hd back
// on the heap, or drops it at the end of its log.
func (m *merger) advance(hd *head) error {
	if !hd.r.Scan() {
		return hd.r.Err()
	}
	h := hd.r.Histogram()
	t := roundTime(h.StartTimeMs())
	if hd.h != nil && t < m.last[hd.src] {
		return fmt.Errorf("%s: %w: %d after %d", sourceName(hd.src), errUnordered, t, m.last[hd.src])
	}
	m.last[hd.src] = t
	h.SetTag(strconv.Itoa(hd.src))
	hd.h, hd.t = h, t
	heap.Push(&m.heads, hd)
	return nil
}

// Scan advances to the next non-empty bucket.
func (m *merger) Scan() bool {
	m.cur = nil
	if m.err != nil {
		return false
	}
	for m.heads.Len() > 0 {
		hd := heap.Pop(&m.heads).(*head)
		h, t := hd.h, hd.t
		if err := m.advance(hd); err != nil {
			m.err = err
			return false
		}
		b, ok := m.w.bucket(t)
		if !ok {
			continue
		}
		if m.acc != nil && b != m.bucket {
			m.flush()
			m.start(b, t, h)
			return true
		}
		if m.acc == nil {
			m.start(b, t, h)
			continue
		}
		m.addTagged(h)
	}
	if m.acc != nil {
		m.flush()
		return true
	}
	return false
}

func (m *merger) start(b int, t int64, h *hdrhistogram.Histogram) {
	m.acc = newAccumulator()
	m.bucket = b
	m.sources = make(map[string]bool)
	m.addTagged(h)
	// Buckets start on the rounded time of their first interval.
	m.acc.h.SetStartTimeMs(t)
}

func (m *merger) addTagged(h *hdrhistogram.Histogram) {
	m.acc.add(h)
	m.sources[h.Tag()] = true
	h.SetTag("")
}

// flush completes the current bucket and makes it the current result.
func (m *merger) flush() {
	if m.onBucket != nil {
		m.onBucket(m.bucket, m.acc.n, len(m.sources))
	}
	m.dropped += m.acc.dropped
	m.cur = m.acc.h
	m.acc = nil
	m.sources = nil
}

func (m *merger) Histogram() *hdrhistogram.Histogram {
	return m.cur
}

func (m *merger) Err() error {
	return m.err
}

// Dropped returns the number of values that fell outside the
// trackable range of the bucket accumulators.
func (m *merger) Dropped() int64 {
	return m.dropped
}

// Close closes every log opened by the merger.
func (m *merger) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}
