// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db provides the high-level database interface for the
// storage app: test cases, their runs, the client jobs of each run and
// the output logs each job produced.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/payload"
)

var (
	// ErrNotFound is returned when a record or its parent does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned by AddCase if a case with the
	// same name already exists.
	ErrDuplicateName = errors.New("duplicate name")
)

// DB is a high-level interface to a database for the storage
// app. It's safe for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertCase   *sql.Stmt
	insertRun    *sql.Stmt
	insertJob    *sql.Stmt
	insertOutput *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to configure its connections.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Cases (
	CaseID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255) NOT NULL UNIQUE,
	Description TEXT,
	Created BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	CaseID BIGINT UNSIGNED NOT NULL,
	Version VARCHAR(255),
	ClassName VARCHAR(255),
	Checksum VARCHAR(255),
	Status VARCHAR(16) NOT NULL,
	Baseline BOOLEAN NOT NULL DEFAULT FALSE,
	Created BIGINT NOT NULL,
	FOREIGN KEY (CaseID) REFERENCES Cases(CaseID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Jobs (
	JobID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	RunID BIGINT UNSIGNED NOT NULL,
	ClientNumber INT NOT NULL,
	Host VARCHAR(255),
	SymbolicName VARCHAR(255),
	Details TEXT,
	Created BIGINT NOT NULL,
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Outputs (
	OutputID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	JobID BIGINT UNSIGNED NOT NULL,
	Operation VARCHAR(255) NOT NULL,
	Format VARCHAR(16) NOT NULL,
	Name VARCHAR(255) NOT NULL,
	Length BIGINT NOT NULL,
	Created BIGINT NOT NULL,
{{if not .sqlite3}}
	Index (JobID, Operation),
{{end}}
	FOREIGN KEY (JobID) REFERENCES Jobs(JobID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS OutputsJobOperation ON Outputs(JobID, Operation);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return errors.Wrap(err, "create table")
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertCase, err = db.sql.Prepare("INSERT INTO Cases(Name, Description, Created) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(CaseID, Version, ClassName, Checksum, Status, Baseline, Created) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertJob, err = db.sql.Prepare("INSERT INTO Jobs(RunID, ClientNumber, Host, SymbolicName, Details, Created) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertOutput, err = db.sql.Prepare("INSERT INTO Outputs(JobID, Operation, Format, Name, Length, Created) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

func timestamp() int64 {
	return now().UnixMilli()
}

// A Case is a named performance test.
type Case struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// Status is the state of a run.
type Status string

const (
	StatusUnknown    Status = "UNKNOWN"
	StatusIncomplete Status = "INCOMPLETE"
	StatusComplete   Status = "COMPLETE"
	StatusFailed     Status = "FAILED"
)

// ParseStatus returns the Status named s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUnknown, StatusIncomplete, StatusComplete, StatusFailed:
		return st, nil
	}
	return "", errors.Errorf("unknown run status %q", s)
}

// A Run is one execution of a case.
type Run struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"caseID"`
	Version   string    `json:"version"`
	ClassName string    `json:"className"`
	Checksum  string    `json:"checksum"`
	Status    Status    `json:"status"`
	Baseline  bool      `json:"baseline"`
	Created   time.Time `json:"created"`
}

// A Job is the part of a run executed by one load-test client.
type Job struct {
	ID           int64     `json:"id"`
	RunID        int64     `json:"runID"`
	ClientNumber int       `json:"clientNumber"`
	Host         string    `json:"host"`
	SymbolicName string    `json:"symbolicName"`
	Details      string    `json:"details"`
	Created      time.Time `json:"created"`
}

// An Output is the interval histogram log recorded by a job for one
// operation. The log itself is stored as a compressed file named Name.
type Output struct {
	ID        int64          `json:"id"`
	JobID     int64          `json:"jobID"`
	Operation string         `json:"operation"`
	Format    payload.Format `json:"format"`
	Name      string         `json:"name"`
	// Length is the uncompressed length of the log.
	Length  int       `json:"length"`
	Created time.Time `json:"created"`
}

// AddCase inserts a new case and returns its ID.
func (db *DB) AddCase(ctx context.Context, c Case) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM Cases WHERE Name = ?", c.Name).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, errors.Wrapf(ErrDuplicateName, "case %q", c.Name)
	}
	res, err := tx.StmtContext(ctx, db.insertCase).ExecContext(ctx, c.Name, c.Description, timestamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Case returns the case named name.
func (db *DB) Case(ctx context.Context, name string) (*Case, error) {
	row := db.sql.QueryRowContext(ctx, "SELECT CaseID, Name, Description, Created FROM Cases WHERE Name = ?", name)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "case %q", name)
	}
	return c, err
}

// Cases returns every case, ordered by name.
func (db *DB) Cases(ctx context.Context) ([]*Case, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT CaseID, Name, Description, Created FROM Cases ORDER BY Name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cs []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

// CountCases returns the number of cases in the database.
func (db *DB) CountCases() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Cases").Scan(&n)
	return n, err
}

// AddRun inserts a new run of the case caseID and returns its ID.
func (db *DB) AddRun(ctx context.Context, caseID int64, r Run) (int64, error) {
	if err := db.exists(ctx, "Cases", "CaseID", caseID); err != nil {
		return 0, err
	}
	if r.Status == "" {
		r.Status = StatusUnknown
	}
	res, err := db.insertRun.ExecContext(ctx, caseID, r.Version, r.ClassName, r.Checksum, string(r.Status), r.Baseline, timestamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const runColumns = "RunID, CaseID, Version, ClassName, Checksum, Status, Baseline, Created"

// Run returns the run with the given ID.
func (db *DB) Run(ctx context.Context, id int64) (*Run, error) {
	row := db.sql.QueryRowContext(ctx, "SELECT "+runColumns+" FROM Runs WHERE RunID = ?", id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "run %d", id)
	}
	return r, err
}

// Runs returns the runs of the case caseID, oldest first.
func (db *DB) Runs(ctx context.Context, caseID int64) ([]*Run, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT "+runColumns+" FROM Runs WHERE CaseID = ? ORDER BY RunID", caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, rows.Err()
}

// SetStatus sets the status of the run runID.
func (db *DB) SetStatus(ctx context.Context, runID int64, s Status) error {
	return db.updateRun(ctx, runID, "Status", string(s))
}

// SetBaseline marks or unmarks the run runID as a baseline of its
// case.
func (db *DB) SetBaseline(ctx context.Context, runID int64, baseline bool) error {
	return db.updateRun(ctx, runID, "Baseline", baseline)
}

func (db *DB) updateRun(ctx context.Context, runID int64, column string, value interface{}) error {
	if err := db.exists(ctx, "Runs", "RunID", runID); err != nil {
		return err
	}
	_, err := db.sql.ExecContext(ctx, "UPDATE Runs SET "+column+" = ? WHERE RunID = ?", value, runID)
	return err
}

// LastBaselineID returns the ID of the most recent baseline run of the
// case caseID. ok is false if the case has no baseline.
func (db *DB) LastBaselineID(ctx context.Context, caseID int64) (id int64, ok bool, err error) {
	err = db.sql.QueryRowContext(ctx, "SELECT RunID FROM Runs WHERE CaseID = ? AND Baseline ORDER BY RunID DESC LIMIT 1", caseID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return id, true, nil
}

// AddJob inserts a new job of the run runID and returns its ID.
func (db *DB) AddJob(ctx context.Context, runID int64, j Job) (int64, error) {
	if err := db.exists(ctx, "Runs", "RunID", runID); err != nil {
		return 0, err
	}
	res, err := db.insertJob.ExecContext(ctx, runID, j.ClientNumber, j.Host, j.SymbolicName, j.Details, timestamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Job returns the job with the given ID.
func (db *DB) Job(ctx context.Context, id int64) (*Job, error) {
	var j Job
	var created int64
	err := db.sql.QueryRowContext(ctx, "SELECT JobID, RunID, ClientNumber, Host, SymbolicName, Details, Created FROM Jobs WHERE JobID = ?", id).
		Scan(&j.ID, &j.RunID, &j.ClientNumber, &j.Host, &j.SymbolicName, &j.Details, &created)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "job %d", id)
	}
	if err != nil {
		return nil, err
	}
	j.Created = time.UnixMilli(created)
	return &j, nil
}

// AddOutput records the output o of the job jobID and returns its ID.
// The log itself must already be stored under o.Name.
func (db *DB) AddOutput(ctx context.Context, jobID int64, o Output) (int64, error) {
	if err := db.exists(ctx, "Jobs", "JobID", jobID); err != nil {
		return 0, err
	}
	res, err := db.insertOutput.ExecContext(ctx, jobID, o.Operation, o.Format.String(), o.Name, o.Length, timestamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const outputColumns = "o.OutputID, o.JobID, o.Operation, o.Format, o.Name, o.Length, o.Created"

// Output returns the output with the given ID.
func (db *DB) Output(ctx context.Context, id int64) (*Output, error) {
	row := db.sql.QueryRowContext(ctx, "SELECT "+outputColumns+" FROM Outputs o WHERE o.OutputID = ?", id)
	o, err := scanOutput(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "output %d", id)
	}
	return o, err
}

// OutputsForOperation returns the outputs recorded for operation by
// every job of the run runID, ordered by ID.
func (db *DB) OutputsForOperation(ctx context.Context, runID int64, operation string) ([]*Output, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT "+outputColumns+" FROM Outputs o JOIN Jobs j ON o.JobID = j.JobID WHERE j.RunID = ? AND o.Operation = ? ORDER BY o.OutputID", runID, operation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var outs []*Output
	for rows.Next() {
		o, err := scanOutput(rows)
		if err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, rows.Err()
}

// OperationsForRun returns the sorted names of the operations with at
// least one output in the run runID.
func (db *DB) OperationsForRun(ctx context.Context, runID int64) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT DISTINCT o.Operation FROM Outputs o JOIN Jobs j ON o.JobID = j.JobID WHERE j.RunID = ? ORDER BY o.Operation", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ops []string
	for rows.Next() {
		var op string
		if err := rows.Scan(&op); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// exists returns ErrNotFound unless table has a row whose column is id.
func (db *DB) exists(ctx context.Context, table, column string, id int64) error {
	var n int
	if err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+column+" = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %d", strings.ToLower(strings.TrimSuffix(table, "s")), id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(s scanner) (*Case, error) {
	var c Case
	var created int64
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &created); err != nil {
		return nil, err
	}
	c.Created = time.UnixMilli(created)
	return &c, nil
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var status string
	var created int64
	if err := s.Scan(&r.ID, &r.CaseID, &r.Version, &r.ClassName, &r.Checksum, &status, &r.Baseline, &created); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	r.Created = time.UnixMilli(created)
	return &r, nil
}

func scanOutput(s scanner) (*Output, error) {
	var o Output
	var format string
	var created int64
	if err := s.Scan(&o.ID, &o.JobID, &o.Operation, &format, &o.Name, &o.Length, &created); err != nil {
		return nil, err
	}
	f, err := payload.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	o.Format = f
	o.Created = time.UnixMilli(created)
	return &o, nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertCase, db.insertRun, db.insertJob, db.insertOutput} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
