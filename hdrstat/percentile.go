// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import "fmt"

// A Percentile is one of the fixed percentile markers tracked for
// every summary. Markers are ordered by rank: a lower marker never
// reports a higher value than a later one.
type Percentile int

const (
	Median Percentile = iota
	P99
	P9999
	Max

	numPercentiles = iota
)

// Percentiles lists every marker in rank order.
var Percentiles = [numPercentiles]Percentile{Median, P99, P9999, Max}

var percentileNames = [numPercentiles]string{"MEDIAN", "_99", "_99_99", "MAX"}

var percentileValues = [numPercentiles]float64{50, 99, 99.99, 100}

// Value returns the percentile level of p, in the range [0, 100].
func (p Percentile) Value() float64 {
	return percentileValues[p]
}

// String returns the wire name of p, for example "MEDIAN" or "_99_99".
func (p Percentile) String() string {
	if p < 0 || p >= numPercentiles {
		return fmt.Sprintf("Percentile(%d)", int(p))
	}
	return percentileNames[p]
}

// ParsePercentile returns the marker with the given wire name.
func ParsePercentile(name string) (Percentile, error) {
	for i, n := range percentileNames {
		if n == name {
			return Percentile(i), nil
		}
	}
	return 0, fmt.Errorf("unknown percentile %q", name)
}

func (p Percentile) MarshalText() ([]byte, error) {
	if p < 0 || p >= numPercentiles {
		return nil, fmt.Errorf("invalid percentile %d", int(p))
	}
	return []byte(percentileNames[p]), nil
}

func (p *Percentile) UnmarshalText(text []byte) error {
	v, err := ParsePercentile(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// numFixedPercentiles is the length of the percentile ladder used for
// statistical comparison.
const numFixedPercentiles = 10

// FixedPercentilePoints returns the first n points of the geometric
// percentile ladder 0, 0.5, 0.75, 0.875, ..., where each point halves
// the remaining distance to 1.
func FixedPercentilePoints(n int) []float64 {
	points := make([]float64, 0, n)
	p := 0.0
	for i := 0; i < n; i++ {
		points = append(points, p)
		p += (1 - p) / 2
	}
	return points
}
