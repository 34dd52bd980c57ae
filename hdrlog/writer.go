// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrlog

import (
	"io"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// A Writer writes interval histograms in the log format read by
// Reader. Timestamps are written as absolute epoch times.
type Writer struct {
	log     *hdrhistogram.HistogramLogWriter
	started bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{log: hdrhistogram.NewHistogramLogWriter(w)}
}

// Write appends h to the log. The log header is written before the
// first histogram, using its start time as the log start time.
func (w *Writer) Write(h *hdrhistogram.Histogram) error {
	if !w.started {
		if err := w.log.OutputLogFormatVersion(); err != nil {
			return err
		}
		if err := w.log.OutputStartTime(h.StartTimeMs()); err != nil {
			return err
		}
		if err := w.log.OutputLegend(); err != nil {
			return err
		}
		w.started = true
	}
	return w.log.OutputIntervalHistogram(h)
}
