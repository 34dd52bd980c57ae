// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hdrstat

import (
	"fmt"

	"github.com/pkg/errors"
)

// A Kind classifies the errors returned by this package.
type Kind int

const (
	// Other is the kind of errors not produced by this package.
	Other Kind = iota

	// InvalidArgument reports a request that cannot be satisfied
	// with the given arguments or inputs.
	InvalidArgument

	// IOFailure reports a failure to open or read a histogram log.
	IOFailure

	// Fatal reports an unexpected failure while computing a summary.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case IOFailure:
		return "I/O failure"
	case Fatal:
		return "fatal"
	}
	return "other"
}

// An Error is returned by the summary operations. Err is the
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error, for github.com/pkg/errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

var (
	errBlankLog   = errors.New("cannot aggregate a blank log")
	errEmptyRange = errors.New("empty time range")
	errUnordered  = errors.New("interval start times are not ascending")
	errClosed     = errors.New("service is closed")
)

// KindOf returns the Kind of err, or Other if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsInvalidArgument reports whether err is an InvalidArgument error.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == InvalidArgument
}

// wrap returns err as an *Error of the given kind, leaving errors that
// already carry a kind unchanged.
func wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidArgument(op string, err error) error {
	return &Error{Kind: InvalidArgument, Op: op, Err: err}
}

func checkMaxDataPoints(op string, maxDataPoints int) error {
	if maxDataPoints <= 0 {
		return invalidArgument(op, errors.Errorf("maxDataPoints must be positive, was %d", maxDataPoints))
	}
	return nil
}
