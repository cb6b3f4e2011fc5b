// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cerr contains the core errors. Use case level failures are
// reported by the Error struct which carries an HTTP status code
// beside the wrapped error, so the REST adapters may serialize them
// uniformly. Connection pool and transaction failures are reported by
// a fixed set of sentinel errors (see pool.go) which callers can test
// using errors.Is, regardless of how many times they were wrapped.
package cerr

import (
	"fmt"
	"net/http"
)

// Error wraps Err and annotates it with the HTTPStatusCode status
// code which should be reported if this error reaches a REST API.
type Error struct {
	Err            error
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func BadRequest(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusBadRequest}
}

func NotFound(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusNotFound}
}

func Conflict(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusConflict}
}

// Unprocessable reports a well-formed request which violates a
// business rule, such as a transfer which exceeds the balance.
func Unprocessable(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusUnprocessableEntity,
	}
}

// Unavailable reports a temporary server side condition, such as an
// exhausted or closing connections pool.
func Unavailable(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusServiceUnavailable}
}
