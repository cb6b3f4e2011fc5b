package gormdb

import (
	"context"

	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
)

// Conn is a session view of a Lease. It implements repo.Conn.
type Conn struct {
	lease *Lease
}

type TxHandler = repo.TxHandler

// Tx runs f in a transaction on this connection. It fails fast with
// cerr.ErrNestedTransactionUnsupported if a transaction is running on
// this connection already.
func (c *Conn) Tx(ctx context.Context, f TxHandler) error {
	return c.lease.transaction(ctx, f)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	gdb, err := c.lease.GORM(ctx)
	if err != nil {
		return 0, err
	}
	return exec(gdb, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	gdb, err := c.lease.GORM(ctx)
	if err != nil {
		return rowsAdapter{}, err
	}
	return query(gdb, sql, args...)
}

func (c *Conn) IsConn() {
}

// GORM returns a gorm handle which runs its statements on this
// connection. A released connection yields a handle which fails
// all statements with cerr.ErrLeaseReleased.
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return handle(ctx, c.lease, nil)
}

// Lease returns the lease which backs c.
func (c *Conn) Lease() *Lease {
	return c.lease
}

func exec(gdb *gorm.DB, sql string, args ...any) (int64, error) {
	tt := gdb.Exec(sql, args...)
	if err := tt.Error; err != nil {
		return 0, err
	}
	return tt.RowsAffected, nil
}

func query(gdb *gorm.DB, sql string, args ...any) (repo.Rows, error) {
	rows, err := gdb.Raw(sql, args...).Rows()
	return rowsAdapter{rows}, err
}

// handle returns the gorm handle of l (or of its open transaction if
// tx is not nil). Errors are recorded in the returned handle, so gorm
// chains fail with them.
func handle(ctx context.Context, l *Lease, tx *gorm.DB) *gorm.DB {
	gdb, err := l.GORM(ctx)
	if tx != nil && err == nil {
		gdb = tx.WithContext(ctx)
	}
	if err != nil {
		gdb = l.db.Session(&gorm.Session{NewDB: true, Context: ctx})
		_ = gdb.AddError(err)
	}
	return gdb
}
