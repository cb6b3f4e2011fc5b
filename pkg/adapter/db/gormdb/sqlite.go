package gormdb

import (
	"context"
	"net/url"
	"strconv"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLite dialect keeps the database in the Settings.Name file, which
// is created on the first connection. Foreign keys are enforced and
// transactions take the write lock when they begin, so concurrent
// writers wait (up to ConnectTimeout) instead of failing with a busy
// error in the middle of a transaction.
var SQLite Dialect = sqliteDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DefaultPort() int   { return 0 }
func (sqliteDialect) NeedsServer() bool  { return false }
func (sqliteDialect) ManualCommit() bool { return false }

func (sqliteDialect) Dialector(s Settings, _ bool) gorm.Dialector {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(s.ConnectTimeout.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	for k, v := range s.Params {
		q.Set(k, v)
	}
	return sqlite.Open("file:" + s.Name + "?" + q.Encode())
}

func (sqliteDialect) IsUnknownDatabase(error) bool {
	return false
}

func (sqliteDialect) CreateDatabase(context.Context, *gorm.DB, string) (bool, error) {
	return false, nil
}
