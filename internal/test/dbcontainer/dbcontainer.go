// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer is an internal helper for the test packages.
// This packages facilitates creation of a temporary postgres:16
// podman container and connecting to it, using a *gormdb.Manager
// connections pool manager.
// It may be used in all integration-level test suites which require
// a real PostgreSQL DBMS server.
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/stretchr/testify/assert"
)

// New creates and starts up a postgres podman container.
// The podman.service needs to be started and the DOCKER_HOST
// environment variable needs to be initialized beforehand like
// DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
// in order to be identified by this function properly.
// The ctx will be used during the container start up and shutdown,
// while the timeout will be considered only during the start up phase.
// The returned settings address the default database of the container.
func New(ctx context.Context, timeout time.Duration, t *testing.T) (
	pg *sqltestutil.PostgresContainer,
	s gormdb.Settings,
	dfrs []func(),
	ok bool,
) {
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	dbmsVer := "16"
	pg, err := sqltestutil.StartPostgresContainer(ctx2, dbmsVer)
	ok = assert.NoError(t, err, "failed to set up a test database")
	if !ok {
		return
	}
	dfrs = append(dfrs, func() {
		err := pg.Shutdown(ctx)
		assert.NoError(t, err, "failed to shutdown test database")
	})
	s, err = Settings(pg.ConnectionString())
	if ok = assert.NoError(t, err, "parsing DB container URL"); !ok {
		return
	}
	m := gormdb.NewManager()
	if ok = assert.NoError(t, m.Configure(s), "configuring manager"); !ok {
		return
	}
probing:
	for {
		var l *gormdb.Lease
		l, err = m.Acquire(ctx2)
		if err == nil {
			err = l.Release()
			break probing
		}
		var pgErr *pgconn.PgError
		var netErr net.Error
		switch {
		case errors.As(err, &pgErr) && pgErr.SQLState() == "57P03":
			// the database system is starting up
		case ctx2.Err() == nil && errors.As(err, &netErr):
			// tolerate network errors until a timeout
		default:
			break probing
		}
		time.Sleep(100 * time.Millisecond)
	}
	ok = assert.NoError(t, err, "cannot connect to test database")
	closeErr := m.Close(ctx)
	ok = assert.NoError(t, closeErr, "closing probing manager") && ok
	return
}

// Settings converts a postgres:// connection URL to the gormdb
// settings. The shutdown hook is disabled, so tests can close their
// managers explicitly.
func Settings(connURL string) (gormdb.Settings, error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return gormdb.Settings{}, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return gormdb.Settings{}, err
	}
	pass, _ := u.User.Password()
	params := map[string]string{}
	for k, v := range u.Query() {
		params[k] = v[0]
	}
	autoclose := false
	return gormdb.Settings{
		Dialect:   gormdb.Postgres.Name(),
		Host:      u.Hostname(),
		Port:      port,
		User:      u.User.Username(),
		Password:  pass,
		Name:      strings.TrimPrefix(u.Path, "/"),
		Params:    params,
		Autoclose: &autoclose,
	}, nil
}
