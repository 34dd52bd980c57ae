// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"encoding/json"
	"fmt"
)

// HdrData summarizes a sequence of interval histograms.
//
// An HdrData is built once and must not be modified afterwards. The
// per-interval slices StartTimes, TPS, Means, Errors and every series
// in TimedPercentiles all have length Size().
type HdrData struct {
	// StartTimes holds the start of each interval, in epoch
	// milliseconds, in ascending order.
	StartTimes []int64 `json:"startTimes"`

	// TPS is the throughput of each interval in samples per second.
	TPS []float64 `json:"tps"`

	// Means and Errors are the mean and standard deviation of each
	// interval, in milliseconds.
	Means  []float64 `json:"means"`
	Errors []float64 `json:"errors"`

	// TimedPercentiles holds, for each marker, the value of each
	// interval at that marker.
	TimedPercentiles PercentileSeries `json:"timedPercentiles"`

	// RoundedPercentiles holds the value of each marker over all
	// intervals.
	RoundedPercentiles PercentileValues `json:"roundedPercentiles"`

	// PercentilePoints and PercentileValues describe the overall
	// distribution. Points are fractions in [0, 1], ascending.
	PercentilePoints []float64 `json:"percentilePoints"`
	PercentileValues []int64   `json:"percentileValues"`

	// FixedPercentileValues holds the overall value at each point of
	// the fixed percentile ladder. It always has 10 entries.
	FixedPercentileValues []int64 `json:"fixedPercentileValues"`
}

// Size returns the number of intervals in d.
func (d *HdrData) Size() int {
	return len(d.StartTimes)
}

// Timed returns the per-interval values of d at marker p.
func (d *HdrData) Timed(p Percentile) []float64 {
	return d.TimedPercentiles[p]
}

// ValueAt returns the overall value of d at marker p.
func (d *HdrData) ValueAt(p Percentile) int64 {
	return d.RoundedPercentiles[p]
}

// fixedValues returns the fixed percentile values as a sample.
func (d *HdrData) fixedValues() []float64 {
	xs := make([]float64, len(d.FixedPercentileValues))
	for i, v := range d.FixedPercentileValues {
		xs[i] = float64(v)
	}
	return xs
}

// PercentileSeries maps each marker to a series of values. It is
// serialized as a JSON object keyed by marker name.
type PercentileSeries [numPercentiles][]float64

func (s PercentileSeries) MarshalJSON() ([]byte, error) {
	m := make(map[Percentile][]float64, numPercentiles)
	for _, p := range Percentiles {
		series := s[p]
		if series == nil {
			series = []float64{}
		}
		m[p] = series
	}
	return json.Marshal(m)
}

func (s *PercentileSeries) UnmarshalJSON(data []byte) error {
	var m map[Percentile][]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, p := range Percentiles {
		series, ok := m[p]
		if !ok {
			return fmt.Errorf("missing percentile %s", p)
		}
		s[p] = series
	}
	return nil
}

// PercentileValues maps each marker to a single value. It is
// serialized as a JSON object keyed by marker name.
type PercentileValues [numPercentiles]int64

func (v PercentileValues) MarshalJSON() ([]byte, error) {
	m := make(map[Percentile]int64, numPercentiles)
	for _, p := range Percentiles {
		m[p] = v[p]
	}
	return json.Marshal(m)
}

func (v *PercentileValues) UnmarshalJSON(data []byte) error {
	var m map[Percentile]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, p := range Percentiles {
		val, ok := m[p]
		if !ok {
			return fmt.Errorf("missing percentile %s", p)
		}
		v[p] = val
	}
	return nil
}
