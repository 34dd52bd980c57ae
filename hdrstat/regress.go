// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

// A ChangeReport reports a possible change of performance between a
// run and a baseline run. PValues holds the p-values below Threshold,
// keyed by operation.
type ChangeReport struct {
	// BaselineID is the ID of the baseline run, or nil if the run
	// had no baseline.
	BaselineID *int64 `json:"baselineID"`

	Threshold float64            `json:"threshold"`
	PValues   map[string]float64 `json:"pValues"`
}

// NoBaseline returns the report for a run without a baseline.
func NoBaseline(threshold float64) *ChangeReport {
	return &ChangeReport{Threshold: threshold, PValues: map[string]float64{}}
}

// CheckRegression compares each operation of a run with the same
// operation of the baseline run and reports the operations whose
// p-value is strictly below threshold. An operation absent from the
// baseline is compared with a blank summary.
func CheckRegression(baselineID int64, current, baseline map[string]*HdrData, threshold float64) *ChangeReport {
	r := &ChangeReport{BaselineID: &baselineID, Threshold: threshold, PValues: map[string]float64{}}
	for op, d := range current {
		base, ok := baseline[op]
		if !ok {
			base = blankHdrData()
		}
		if p := Compare(base, d); p < threshold {
			r.PValues[op] = p
		}
	}
	return r
}
