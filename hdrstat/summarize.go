// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import "github.com/HdrHistogram/hdrhistogram-go"

// percentileTicks is the number of reporting points per halving of the
// distance to 100% in the overall percentile curve.
const percentileTicks = 5

// summarize folds a sequence of interval histograms into an HdrData.
func summarize(it histogramIter) (*HdrData, int64, error) {
	d := newHdrData()
	total := newAccumulator()
	for it.Scan() {
		h := it.Histogram()
		d.addInterval(h)
		total.add(h)
	}
	if err := it.Err(); err != nil {
		return nil, total.dropped, err
	}
	d.setOverall(total.h)
	return d, total.dropped, nil
}

// blankHdrData returns the summary of an empty sequence.
func blankHdrData() *HdrData {
	d := newHdrData()
	d.setOverall(newAccumulator().h)
	return d
}

func newHdrData() *HdrData {
	d := &HdrData{
		StartTimes:       []int64{},
		TPS:              []float64{},
		Means:            []float64{},
		Errors:           []float64{},
		PercentilePoints: []float64{},
		PercentileValues: []int64{},
	}
	for _, p := range Percentiles {
		d.TimedPercentiles[p] = []float64{}
	}
	return d
}

func (d *HdrData) addInterval(h *hdrhistogram.Histogram) {
	start := h.StartTimeMs()
	var tps float64
	if duration := h.EndTimeMs() - start; duration > 0 {
		tps = 1000 * float64(h.TotalCount()) / float64(duration)
	}
	d.StartTimes = append(d.StartTimes, start)
	d.TPS = append(d.TPS, tps)
	d.Means = append(d.Means, h.Mean()/1e6)
	d.Errors = append(d.Errors, h.StdDev()/1e6)
	for _, p := range Percentiles {
		d.TimedPercentiles[p] = append(d.TimedPercentiles[p], float64(valueAt(h, p.Value()/100)))
	}
}

// setOverall fills in the fields of d derived from the sum of all
// intervals.
func (d *HdrData) setOverall(total *hdrhistogram.Histogram) {
	for _, p := range Percentiles {
		d.RoundedPercentiles[p] = valueAt(total, p.Value()/100)
	}
	d.FixedPercentileValues = make([]int64, 0, numFixedPercentiles)
	for _, point := range FixedPercentilePoints(numFixedPercentiles) {
		d.FixedPercentileValues = append(d.FixedPercentileValues, valueAt(total, point))
	}
	if total.TotalCount() == 0 {
		return
	}
	for _, b := range total.CumulativeDistributionWithTicks(percentileTicks) {
		d.PercentilePoints = append(d.PercentilePoints, b.Quantile/100)
		d.PercentileValues = append(d.PercentileValues, b.ValueAt)
	}
}
