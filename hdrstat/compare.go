// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import "github.com/rainfall/perfstore/kstest"

// Compare returns the p-value of the two-sample Kolmogorov-Smirnov
// test applied to the fixed percentile values of a and b. A small
// p-value indicates that a and b come from different distributions.
func Compare(a, b *HdrData) float64 {
	res, err := kstest.TwoSample(a.fixedValues(), b.fixedValues())
	if err != nil {
		// Every HdrData built by this package carries a full
		// percentile ladder.
		panic(err)
	}
	return res.P
}

// A Pair identifies two summaries by their positions in the slice
// passed to ComparePairs.
type Pair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// A PairComparison is the p-value of one pair of summaries.
type PairComparison struct {
	Pair
	P float64 `json:"pvalue"`
}

// ComparePairs compares every unordered pair of summaries in ds. The
// result is ordered by Left, then Right.
func ComparePairs(ds []*HdrData) []PairComparison {
	var out []PairComparison
	for i := range ds {
		for j := i + 1; j < len(ds); j++ {
			out = append(out, PairComparison{Pair{i, j}, Compare(ds[i], ds[j])})
		}
	}
	return out
}
