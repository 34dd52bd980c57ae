// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"encoding/json"
	"testing"

	"github.com/rainfall/perfstore/hdrlog/hdrlogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHdrDataJSON(t *testing.T) {
	hs := hdrlogtest.Series(testStart, 3, hdrlogtest.Constant(2000, 5))
	d, _, err := summarize(newSliceIter(hs))
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{
		"startTimes", "tps", "means", "errors",
		"timedPercentiles", "roundedPercentiles",
		"percentilePoints", "percentileValues", "fixedPercentileValues",
	} {
		assert.Contains(t, fields, name)
	}
	assert.Len(t, fields, 9)

	var timed map[string][]float64
	require.NoError(t, json.Unmarshal(fields["timedPercentiles"], &timed))
	assert.Len(t, timed, 4)
	for _, name := range []string{"MEDIAN", "_99", "_99_99", "MAX"} {
		assert.Len(t, timed[name], 3, name)
	}

	var rounded map[string]int64
	require.NoError(t, json.Unmarshal(fields["roundedPercentiles"], &rounded))
	assert.Equal(t, d.ValueAt(P9999), rounded["_99_99"])

	var back HdrData
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, &back)
}

func TestBlankHdrDataJSON(t *testing.T) {
	data, err := json.Marshal(blankHdrData())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"startTimes": [], "tps": [], "means": [], "errors": [],
		"timedPercentiles": {"MEDIAN": [], "_99": [], "_99_99": [], "MAX": []},
		"roundedPercentiles": {"MEDIAN": 0, "_99": 0, "_99_99": 0, "MAX": 0},
		"percentilePoints": [], "percentileValues": [],
		"fixedPercentileValues": [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
	}`, string(data))
}

func TestPercentileValuesMissing(t *testing.T) {
	var v PercentileValues
	err := json.Unmarshal([]byte(`{"MEDIAN": 1, "_99": 2, "MAX": 4}`), &v)
	assert.ErrorContains(t, err, "_99_99")
}

func TestPercentileSeriesMissing(t *testing.T) {
	var s PercentileSeries
	err := json.Unmarshal([]byte(`{"MEDIAN": [1], "_99_99": [3], "MAX": [4]}`), &s)
	assert.ErrorContains(t, err, "_99")

	err = json.Unmarshal([]byte(`{"MEDIAN": [1], "_99": [2], "_99_99": [3], "MAX": [4]}`), &s)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, s[Max])
}
