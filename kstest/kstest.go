// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kstest implements the two-sample Kolmogorov-Smirnov test.
//
// The test statistic D is the largest distance between the empirical
// distribution functions of the two samples. For small samples the
// p-value is computed exactly by counting the monotone lattice paths
// that keep the distance below D; larger samples use the asymptotic
// Kolmogorov distribution.
package kstest

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/mathx"
	"gonum.org/v1/gonum/stat"
)

// exactLimit is the largest product of the sample sizes for which the
// p-value is computed exactly.
const exactLimit = 10000

// ErrSampleSize is returned if either sample is empty.
var ErrSampleSize = errors.New("kstest: samples must not be empty")

// A Result is the outcome of a two-sample test.
type Result struct {
	// D is the Kolmogorov-Smirnov statistic.
	D float64

	// P is the probability, under the null hypothesis that both
	// samples come from the same distribution, of observing a
	// statistic at least as large as D.
	P float64

	// N1 and N2 are the sizes of the two samples.
	N1, N2 int

	// Exact reports whether P was computed exactly.
	Exact bool
}

func (r Result) String() string {
	if r.N1 == r.N2 {
		return fmt.Sprintf("D=%.3f p=%.3f n=%d", r.D, r.P, r.N1)
	}
	return fmt.Sprintf("D=%.3f p=%.3f n=%d+%d", r.D, r.P, r.N1, r.N2)
}

// TwoSample tests whether x and y come from the same distribution.
// Neither x nor y is modified.
func TwoSample(x, y []float64) (Result, error) {
	if len(x) == 0 || len(y) == 0 {
		return Result{}, ErrSampleSize
	}
	xs := append([]float64(nil), x...)
	ys := append([]float64(nil), y...)
	sort.Float64s(xs)
	sort.Float64s(ys)

	n, m := len(xs), len(ys)
	res := Result{D: stat.KolmogorovSmirnov(xs, nil, ys, nil), N1: n, N2: m}
	if n*m < exactLimit {
		res.P, res.Exact = exactP(res.D, n, m), true
	} else {
		res.P = asymptoticP(res.D, n, m)
	}
	return res, nil
}

// exactP returns P(D >= d) for samples of sizes n and m.
//
// A pair of samples corresponds to a monotone path from (0, 0) to
// (n, m); at point (i, j) the distance between the two empirical
// distribution functions is |i/n - j/m|. The p-value is one minus the
// fraction of paths that stay strictly below d.
func exactP(d float64, n, m int) float64 {
	// D is a multiple of 1/(n*m), so compare in integer units.
	limit := int64(math.Round(d * float64(n) * float64(m)))
	inside := func(i, j int) bool {
		diff := int64(i)*int64(m) - int64(j)*int64(n)
		if diff < 0 {
			diff = -diff
		}
		return diff < limit
	}

	paths := make([]float64, m+1)
	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			switch {
			case !inside(i, j):
				paths[j] = 0
			case i == 0 && j == 0:
				paths[j] = 1
			case i == 0:
				paths[j] = paths[j-1]
			case j > 0:
				paths[j] += paths[j-1]
			}
		}
	}
	p := 1 - paths[m]/mathx.Choose(n+m, n)
	return clamp(p)
}

// asymptoticP returns the limiting P(D >= d) for samples of sizes n
// and m, with the small-sample correction of Stephens (1970).
func asymptoticP(d float64, n, m int) float64 {
	en := math.Sqrt(float64(n) * float64(m) / float64(n+m))
	lambda := (en + 0.12 + 0.11/en) * d
	if lambda < 0.2 {
		return 1
	}
	var sum, prev float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) <= 1e-10*math.Abs(prev) || math.Abs(term) <= 1e-16*sum {
			break
		}
		sign, prev = -sign, term
	}
	return clamp(2 * sum)
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
