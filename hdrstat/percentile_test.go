// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentiles(t *testing.T) {
	names := []string{"MEDIAN", "_99", "_99_99", "MAX"}
	values := []float64{50, 99, 99.99, 100}
	for i, p := range Percentiles {
		assert.Equal(t, names[i], p.String())
		assert.Equal(t, values[i], p.Value())
		q, err := ParsePercentile(names[i])
		require.NoError(t, err)
		assert.Equal(t, p, q)
	}
	_, err := ParsePercentile("_95")
	assert.Error(t, err)
	assert.Equal(t, "Percentile(7)", Percentile(7).String())
}

func TestFixedPercentilePoints(t *testing.T) {
	points := FixedPercentilePoints(numFixedPercentiles)
	require.Len(t, points, 10)
	assert.Equal(t, []float64{0, 0.5, 0.75, 0.875}, points[:4])
	assert.InDelta(t, 1-1.0/512, points[9], 1e-12)
}
