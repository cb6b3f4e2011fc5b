package gormdb

import (
	"database/sql"
	"os"
)

// SetNotify replaces the signal subscription of m, so tests can
// deliver termination signals without signalling the process.
func SetNotify(m *Manager, notify func(c chan<- os.Signal)) {
	m.notify = notify
}

// DiscardConn exposes the removal of dead connections.
var DiscardConn = discardConn

// SQLDB returns the sql.DB of p.
func SQLDB(p *Pool) *sql.DB {
	return p.sqlDB
}
