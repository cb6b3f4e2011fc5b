package gormdb_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"gorm.io/gorm"
)

var errUnknownDB = errors.New("unknown database")

// fakeDialect opens sqlite files, but may pretend that the database
// is missing until CreateDatabase is called.
type fakeDialect struct {
	name      string
	delay     time.Duration
	createErr error
	stuck     bool // CreateDatabase does not fix the missing database
	manual    bool // sessions are reset by ROLLBACK on release

	opens   atomic.Int32
	creates atomic.Int32
	missing atomic.Bool
}

func (d *fakeDialect) Name() string       { return d.name }
func (d *fakeDialect) DefaultPort() int   { return 0 }
func (d *fakeDialect) NeedsServer() bool  { return false }
func (d *fakeDialect) ManualCommit() bool { return d.manual }

func (d *fakeDialect) Dialector(s gormdb.Settings, selectDB bool) gorm.Dialector {
	return &fakeDialector{
		Dialector: gormdb.SQLite.Dialector(s, selectDB),
		d:         d,
		selectDB:  selectDB,
	}
}

func (d *fakeDialect) IsUnknownDatabase(err error) bool {
	return errors.Is(err, errUnknownDB)
}

func (d *fakeDialect) CreateDatabase(context.Context, *gorm.DB, string) (bool, error) {
	d.creates.Add(1)
	if d.createErr != nil {
		return false, d.createErr
	}
	if d.stuck {
		return true, nil
	}
	return d.missing.CompareAndSwap(true, false), nil
}

type fakeDialector struct {
	gorm.Dialector
	d        *fakeDialect
	selectDB bool
}

func (fd *fakeDialector) Initialize(db *gorm.DB) error {
	if fd.selectDB {
		fd.d.opens.Add(1)
		time.Sleep(fd.d.delay)
		if fd.d.missing.Load() {
			return errUnknownDB
		}
	}
	return fd.Dialector.Initialize(db)
}
