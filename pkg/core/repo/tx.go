// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Tx represents a database transaction.
// It is unsafe to be used concurrently. A transaction may be used
// in order to execute one or more SQL statements one at a time and
// in the order of their calls. For statement execution methods, see
// the Queryer interface.
// A transaction ends exactly once, by COMMIT or by ROLLBACK, when its
// handler returns. The default isolation level of the DBMS is used,
// that is, REPEATABLE-READ for InnoDB tables in MySQL and READ-COMMITTED
// in PostgreSQL.
type Tx interface {
	Queryer

	// IsTx method prevents a non-Tx object (such as a Conn) to
	// mistakenly implement the Tx interface.
	IsTx()
}
