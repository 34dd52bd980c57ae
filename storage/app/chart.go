// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"
	"image/color"
	"io"
	"net/http"

	"github.com/rainfall/perfstore/hdrstat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	chartWidth  = 24 * vg.Centimeter
	chartHeight = 12 * vg.Centimeter
	chartDPI    = 96
)

// chart serves a PNG chart of the percentile series of one operation
// of a run over time.
func (a *App) chart(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.requestedSummary(r, runID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	title := fmt.Sprintf("run %d: %s", runID, r.FormValue("operation"))
	pl, err := percentileChart(title, d)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := writePNG(w, pl); err != nil {
		a.Log.WithError(err).Warn("writing chart")
	}
}

// percentileChart plots the value of every percentile marker of d,
// in milliseconds, against the time since the first interval.
func percentileChart(title string, d *hdrstat.HdrData) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "time (s)"
	pl.Y.Label.Text = "latency (ms)"
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	for i, p := range hdrstat.Percentiles {
		series := d.Timed(p)
		xys := make(plotter.XYs, len(series))
		for j, v := range series {
			xys[j].X = float64(d.StartTimes[j]-d.StartTimes[0]) / 1000
			xys[j].Y = v / 1e6
		}
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		pl.Add(line)
		pl.Legend.Add(p.String(), line)
	}
	return pl, nil
}

func writePNG(w io.Writer, pl *plot.Plot) error {
	c := vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(chartWidth, chartHeight),
		vgimg.UseDPI(chartDPI), vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(c))
	_, err := c.WriteTo(w)
	return err
}
