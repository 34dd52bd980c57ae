// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app implements the performance data storage server. Combine
// an App with a database, a filesystem and a summary service to get an
// HTTP server.
package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/hdrstat"
	"github.com/rainfall/perfstore/payload"
	"github.com/rainfall/perfstore/storage/db"
	"github.com/rainfall/perfstore/storage/fs"
	log "github.com/sirupsen/logrus"
)

// App manages the storage server logic. Construct an App instance
// using a literal with DB, FS and Summaries objects and call
// RegisterOnMux to connect it with an HTTP server.
type App struct {
	DB        *db.DB
	FS        fs.FS
	Summaries *hdrstat.Service

	// Format is the compression format of newly uploaded logs.
	Format payload.Format

	// MaxDataPoints is the interval budget of summaries whose
	// request does not set one. Zero means
	// hdrstat.DefaultMaxDataPoints.
	MaxDataPoints int

	// CacheTTL is how long run summaries are kept. Zero means five
	// minutes.
	CacheTTL time.Duration

	// Log receives request errors. Nil means the standard logger.
	Log log.FieldLogger

	initOnce  sync.Once
	summaries *cache.Cache
}

func (a *App) init() {
	a.initOnce.Do(func() {
		ttl := a.CacheTTL
		if ttl == 0 {
			ttl = 5 * time.Minute
		}
		a.summaries = cache.New(ttl, 2*ttl)
		if a.Log == nil {
			a.Log = log.StandardLogger()
		}
		if a.MaxDataPoints == 0 {
			a.MaxDataPoints = hdrstat.DefaultMaxDataPoints
		}
	})
}

// RegisterOnMux registers the app's URLs on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	a.init()
	mux.HandleFunc("GET /cases", a.listCases)
	mux.HandleFunc("POST /cases", a.addCase)
	mux.HandleFunc("GET /cases/{id}/runs", a.listRuns)
	mux.HandleFunc("POST /cases/{id}/runs", a.addRun)
	mux.HandleFunc("GET /runs/{id}", a.getRun)
	mux.HandleFunc("POST /runs/{id}/jobs", a.addJob)
	mux.HandleFunc("POST /runs/{id}/status", a.setStatus)
	mux.HandleFunc("POST /runs/{id}/baseline", a.setBaseline)
	mux.HandleFunc("POST /jobs/{id}/outputs", a.upload)

	mux.HandleFunc("GET /outputs/{id}/hdr", a.outputSummary)
	mux.HandleFunc("GET /runs/{id}/operations", a.runOperations)
	mux.HandleFunc("GET /runs/{id}/hdr", a.runSummary)
	mux.HandleFunc("GET /runs/{id}/chart.png", a.chart)
	mux.HandleFunc("GET /runs/{id}/report", a.report)
	mux.HandleFunc("GET /runs/{id}/regression", a.regression)
	mux.HandleFunc("GET /compare/operations", a.compareOperations)
	mux.HandleFunc("GET /compare", a.compare)
}

// A requestError is an error caused by the request itself.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{http.StatusBadRequest, fmt.Sprintf(format, args...)}
}

// statusCode returns the HTTP status reporting err.
func statusCode(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return re.code
	case hdrstat.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, db.ErrDuplicateName):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail reports err to the client as a JSON object {"msg": ...}.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	l := a.Log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path, "status": code})
	if code == http.StatusInternalServerError {
		l.WithError(err).Error("request failed")
	} else {
		l.WithError(err).Info("request rejected")
	}
	writeJSON(w, code, map[string]string{"msg": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// reply writes v as the JSON response to r, or reports err.
func (a *App) reply(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// pathID returns the integer path parameter "id".
func pathID(r *http.Request) (int64, error) {
	s := r.PathValue("id")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, badRequest("invalid ID %q", s)
	}
	return id, nil
}

// maxDataPoints returns the "max" query parameter, or the default.
func (a *App) maxDataPoints(r *http.Request) (int, error) {
	s := r.FormValue("max")
	if s == "" {
		return a.MaxDataPoints, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest("invalid max %q", s)
	}
	return n, nil
}

// parseRunIDs parses a list of run IDs separated by dashes, such as
// "1-2-3".
func parseRunIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, badRequest("missing runs parameter")
	}
	var ids []int64
	for _, f := range strings.Split(s, "-") {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, badRequest("invalid run ID %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
