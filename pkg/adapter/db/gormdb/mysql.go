package gormdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// erUnknownDB is the ER_BAD_DB_ERROR server error number.
const erUnknownDB = 1049

// MySQL is the default dialect. It supports disabling autocommit per
// session and creates missing databases automatically.
var MySQL Dialect = mysqlDialect{}

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DefaultPort() int   { return 3306 }
func (mysqlDialect) NeedsServer() bool  { return true }
func (mysqlDialect) ManualCommit() bool { return true }

func (mysqlDialect) Dialector(s Settings, selectDB bool) gorm.Dialector {
	cfg := mysqldrv.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	cfg.Timeout = s.ConnectTimeout
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	for k, v := range s.Params {
		cfg.Params[k] = v
	}
	if selectDB {
		cfg.DBName = s.Name
		if s.Autocommit != nil && !*s.Autocommit {
			cfg.Params["autocommit"] = "0"
		}
	}
	return mysql.New(mysql.Config{DSNConfig: cfg})
}

func (mysqlDialect) IsUnknownDatabase(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == erUnknownDB
}

func (mysqlDialect) CreateDatabase(
	ctx context.Context, admin *gorm.DB, name string,
) (bool, error) {
	if !dbNamePattern.MatchString(name) {
		return false, fmt.Errorf("%w: database name %q", ErrInvalidSettings, name)
	}
	res := admin.WithContext(ctx).Exec(
		"CREATE DATABASE IF NOT EXISTS `" + name + "`",
	)
	if err := res.Error; err != nil {
		return false, err
	}
	// one row is affected only if the database did not exist
	return res.RowsAffected == 1, nil
}
