package repo

import "context"

// TxHandler is called with an open transaction.
type TxHandler func(context.Context, Tx) error

// Conn represents a leased session connection. It must not be used
// concurrently and must not be kept after its handler returns.
type Conn interface {
	Queryer

	// Tx begins a transaction on this connection. Calling Tx while
	// this connection is already running another transaction fails
	// with cerr.ErrNestedTransactionUnsupported because savepoints
	// are not supported.
	Tx(ctx context.Context, handler TxHandler) error

	// IsConn method prevents a non-Conn object (such as a Tx) to
	// mistakenly implement the Conn interface.
	IsConn()
}
