package repo

import "context"

// Queryer runs raw SQL statements on a leased connection or on an open
// transaction. Placeholders follow the ? syntax, independent of the
// underlying driver.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (count int64, err error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
	Values() ([]any, error)
}
