// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	summaries *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perfstore",
			Subsystem: "hdrstat",
			Name:      "summaries_total",
			Help:      "Number of summaries computed, by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "perfstore",
			Subsystem: "hdrstat",
			Name:      "summary_duration_seconds",
			Help:      "Time spent computing a summary.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op"}),
	}
}

func (m *metrics) register(r prometheus.Registerer) {
	r.MustRegister(m.summaries, m.duration)
}

func (m *metrics) observe(op string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.summaries.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
