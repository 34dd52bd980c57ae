// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrlog

import (
	"fmt"
	"io"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// A Reader reads interval histograms from a log.
//
// Its API is modeled on bufio.Scanner: call Scan until it returns
// false, then check Err. Unlike benchmark readers, a Reader hands the
// caller ownership of each histogram it returns.
type Reader struct {
	name string
	src  *errReader
	log  *hdrhistogram.HistogramLogReader

	h     *hdrhistogram.Histogram
	count int
	err   error
}

// errReader remembers the first non-EOF error of the underlying
// reader, since the log codec does not always report it.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF && e.err == nil {
		e.err = err
	}
	return n, err
}

// NewReader returns a Reader over the log in r. name is used in error
// messages only.
func NewReader(r io.Reader, name string) *Reader {
	if name == "" {
		name = "<unknown>"
	}
	src := &errReader{r: r}
	return &Reader{
		name: name,
		src:  src,
		log:  hdrhistogram.NewHistogramLogReader(src),
	}
}

// Scan advances the reader to the next interval histogram and reports
// whether one was read. At EOF or on error it returns false; the
// caller should then use Err.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	h, err := r.log.NextIntervalHistogram()
	if err == nil {
		err = r.src.err
	}
	if err != nil {
		r.h = nil
		r.err = fmt.Errorf("%s: interval %d: %w", r.name, r.count, err)
		return false
	}
	if h == nil {
		r.h = nil
		return false
	}
	r.h = h
	r.count++
	return true
}

// Histogram returns the interval histogram read by the last call to
// Scan.
func (r *Reader) Histogram() *hdrhistogram.Histogram {
	return r.h
}

// Count returns the number of interval histograms read so far.
func (r *Reader) Count() int {
	return r.count
}

// Err returns the first error encountered by Scan, or nil if Scan
// stopped at the end of the log.
func (r *Reader) Err() error {
	return r.err
}

// ReadAll opens src and returns every interval histogram in it.
func ReadAll(src Source) ([]*hdrhistogram.Histogram, error) {
	rc, err := src()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var hs []*hdrhistogram.Histogram
	r := NewReader(rc, "")
	for r.Scan() {
		hs = append(hs, r.Histogram())
	}
	return hs, r.Err()
}

// Count opens src and returns the number of interval histograms in it.
func Count(src Source) (int, error) {
	rc, err := src()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	r := NewReader(rc, "")
	for r.Scan() {
	}
	return r.Count(), r.Err()
}
