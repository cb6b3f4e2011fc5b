// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"errors"
	"fmt"
)

// These errors describe the connection pool and transaction scope
// failures. Driver errors are never replaced by them; they are either
// passed through unchanged or wrapped next to one of these sentinels.
var (
	// ErrNotConfigured is returned when a pool is requested before
	// the connection settings are provided.
	ErrNotConfigured = errors.New("database is not configured")

	// ErrConfigurationLocked is returned when connection settings are
	// changed while a pool (which was built from them) is alive.
	ErrConfigurationLocked = errors.New(
		"database configuration is locked by a live pool",
	)

	// ErrPoolExhausted is returned when no connection could be
	// leased before the acquisition timeout.
	ErrPoolExhausted = errors.New("connections pool is exhausted")

	// ErrPoolCreationFailed wraps the driver error which prevented the
	// pool creation, even after an attempt to create the database.
	ErrPoolCreationFailed = errors.New("creating connections pool")

	// ErrPoolClosed is returned by acquisitions which were started
	// after the pool began to close.
	ErrPoolClosed = errors.New("connections pool is closed")

	// ErrTransactionFailed reports a failed COMMIT or ROLLBACK.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNestedTransactionUnsupported is returned when a transaction
	// is requested on a connection which is already in a transaction.
	ErrNestedTransactionUnsupported = errors.New(
		"nested transactions are not supported",
	)

	// ErrLeaseReleased is returned when a lease is released twice or
	// used after its release.
	ErrLeaseReleased = errors.New("connection lease is already released")
)

// RollbackError is returned when a transaction body failed and then
// its ROLLBACK failed too. The body error is kept as the primary error,
// so errors.Is(err, bodyErr) holds, while errors.Is(err,
// ErrTransactionFailed) reports the failed rollback.
type RollbackError struct {
	Err      error // error which was returned by the transaction body
	Rollback error // error which was returned by the ROLLBACK statement
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback: %v)", e.Err, e.Rollback)
}

// Unwrap exposes the body error, the ErrTransactionFailed sentinel,
// and the rollback error to the errors.Is and errors.As functions.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, ErrTransactionFailed, e.Rollback}
}
