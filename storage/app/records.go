// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"net/http"

	"github.com/rainfall/perfstore/storage/db"
)

// idResponse is the response to the requests creating a record.
type idResponse struct {
	ID int64 `json:"id"`
}

func (a *App) listCases(w http.ResponseWriter, r *http.Request) {
	cs, err := a.DB.Cases(r.Context())
	if cs == nil {
		cs = []*db.Case{}
	}
	a.reply(w, r, cs, err)
}

func (a *App) addCase(w http.ResponseWriter, r *http.Request) {
	var c db.Case
	if err := decodeBody(r, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	if c.Name == "" {
		a.fail(w, r, badRequest("missing case name"))
		return
	}
	id, err := a.DB.AddCase(r.Context(), c)
	a.reply(w, r, idResponse{id}, err)
}

func (a *App) listRuns(w http.ResponseWriter, r *http.Request) {
	caseID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	runs, err := a.DB.Runs(r.Context(), caseID)
	if runs == nil {
		runs = []*db.Run{}
	}
	a.reply(w, r, runs, err)
}

func (a *App) addRun(w http.ResponseWriter, r *http.Request) {
	caseID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var run db.Run
	if err := decodeBody(r, &run); err != nil {
		a.fail(w, r, err)
		return
	}
	if run.Status != "" {
		if _, err := db.ParseStatus(string(run.Status)); err != nil {
			a.fail(w, r, badRequest("%v", err))
			return
		}
	}
	id, err := a.DB.AddRun(r.Context(), caseID, run)
	a.reply(w, r, idResponse{id}, err)
}

func (a *App) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	run, err := a.DB.Run(r.Context(), id)
	a.reply(w, r, run, err)
}

func (a *App) addJob(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var j db.Job
	if err := decodeBody(r, &j); err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := a.DB.AddJob(r.Context(), runID, j)
	a.reply(w, r, idResponse{id}, err)
}

func (a *App) setStatus(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var s string
	if err := decodeBody(r, &s); err != nil {
		a.fail(w, r, err)
		return
	}
	status, err := db.ParseStatus(s)
	if err != nil {
		a.fail(w, r, badRequest("%v", err))
		return
	}
	err = a.DB.SetStatus(r.Context(), runID, status)
	a.reply(w, r, status, err)
}

// setBaseline marks a run as a baseline of its case, or unmarks it.
// The body is the JSON boolean true or false.
func (a *App) setBaseline(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var baseline bool
	if err := decodeBody(r, &baseline); err != nil {
		a.fail(w, r, err)
		return
	}
	err = a.DB.SetBaseline(r.Context(), runID, baseline)
	a.reply(w, r, baseline, err)
}
