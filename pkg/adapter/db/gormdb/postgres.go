package gormdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// pgInvalidCatalogName is the SQLSTATE of a missing database.
const pgInvalidCatalogName = "3D000"

// Postgres dialect connects through pgx. Sessions are always in the
// autocommit mode and missing databases are created by connecting to
// the postgres maintenance database.
var Postgres Dialect = postgresDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DefaultPort() int   { return 5432 }
func (postgresDialect) NeedsServer() bool  { return true }
func (postgresDialect) ManualCommit() bool { return false }

func (postgresDialect) Dialector(s Settings, selectDB bool) gorm.Dialector {
	q := url.Values{}
	for k, v := range s.Params {
		q.Set(k, v)
	}
	if s.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(s.ConnectTimeout.Seconds())))
	}
	dbName := "postgres"
	if selectDB {
		dbName = s.Name
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(s.User, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return postgres.Open(u.String())
}

func (postgresDialect) IsUnknownDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidCatalogName
}

func (postgresDialect) CreateDatabase(
	ctx context.Context, admin *gorm.DB, name string,
) (bool, error) {
	if !dbNamePattern.MatchString(name) {
		return false, fmt.Errorf("%w: database name %q", ErrInvalidSettings, name)
	}
	gdb := admin.WithContext(ctx)
	var n int64
	err := gdb.Raw(
		"SELECT count(*) FROM pg_database WHERE datname = ?", name,
	).Scan(&n).Error
	if err != nil {
		return false, fmt.Errorf("querying pg_database: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err = gdb.Exec(`CREATE DATABASE "` + name + `"`).Error; err != nil {
		return false, err
	}
	return true, nil
}
