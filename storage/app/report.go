// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/safehtml/template"
	"github.com/rainfall/perfstore/hdrstat"
	"github.com/rainfall/perfstore/storage/db"
)

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Run {{.Run.ID}}</title>
<style>
table { border-collapse: collapse; }
th, td { padding: 0.2em 0.8em; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>Run {{.Run.ID}}</h1>
<p>Version {{.Run.Version}}, status {{.Run.Status}}{{if .Run.Baseline}}, baseline{{end}}.</p>
{{if .Rows -}}
<table>
<tr><th>operation<th>intervals{{range .Markers}}<th>{{.}} (ms){{end}}
{{range .Rows -}}
<tr><td>{{.Operation}}<td>{{.Size}}{{range .Values}}<td>{{.}}{{end}}
{{end -}}
</table>
{{- else -}}
<p>No outputs.</p>
{{- end}}
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

type reportRow struct {
	Operation string
	Size      int
	Values    []string
}

type reportData struct {
	Run     *db.Run
	Markers []string
	Rows    []reportRow
}

// report serves an HTML table of the overall percentiles of every
// operation of a run.
func (a *App) report(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	run, err := a.DB.Run(r.Context(), runID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ds, err := a.summarizeOperations(r.Context(), runID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ops := make([]string, 0, len(ds))
	for op := range ds {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	data := reportData{Run: run}
	for _, p := range hdrstat.Percentiles {
		data.Markers = append(data.Markers, p.String())
	}
	for _, op := range ops {
		d := ds[op]
		row := reportRow{Operation: op, Size: d.Size()}
		for _, p := range hdrstat.Percentiles {
			row.Values = append(row.Values, fmt.Sprintf("%.3f", float64(d.ValueAt(p))/1e6))
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
