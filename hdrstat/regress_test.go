// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRegression(t *testing.T) {
	fast, slow := summaryOf(t, 100000), summaryOf(t, 10000000)
	current := map[string]*HdrData{
		"get":    fast,
		"put":    slow,
		"delete": slow,
	}
	baseline := map[string]*HdrData{
		"get": fast,
		"put": fast,
	}
	r := CheckRegression(42, current, baseline, 0.05)
	require.NotNil(t, r.BaselineID)
	assert.EqualValues(t, 42, *r.BaselineID)
	assert.Equal(t, 0.05, r.Threshold)
	require.Len(t, r.PValues, 2)
	assert.Less(t, r.PValues["put"], 0.05)
	// delete has no baseline outputs, so it is compared with a blank
	// summary.
	assert.Less(t, r.PValues["delete"], 0.05)
	assert.NotContains(t, r.PValues, "get")
}

func TestCheckRegressionNewOperation(t *testing.T) {
	d := summaryOf(t, 100000)
	r := CheckRegression(1, map[string]*HdrData{"miss": d}, map[string]*HdrData{"get": d}, 0.2)
	require.Contains(t, r.PValues, "miss")
	assert.Equal(t, Compare(blankHdrData(), d), r.PValues["miss"])
	assert.Less(t, r.PValues["miss"], 0.001)
}

func TestCheckRegressionThresholdStrict(t *testing.T) {
	d := summaryOf(t, 100000)
	// Identical summaries have p = 1, which is not below 1.
	r := CheckRegression(1, map[string]*HdrData{"get": d}, map[string]*HdrData{"get": d}, 1)
	assert.Empty(t, r.PValues)
}

func TestNoBaseline(t *testing.T) {
	data, err := json.Marshal(NoBaseline(0.01))
	require.NoError(t, err)
	assert.JSONEq(t, `{"baselineID": null, "threshold": 0.01, "pValues": {}}`, string(data))
}
