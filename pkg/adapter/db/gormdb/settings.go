// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// ErrInvalidSettings is wrapped by all settings validation errors.
var ErrInvalidSettings = errors.New("invalid database settings")

// These are the defaults which are used for zero Settings fields.
const (
	DefaultMinSize        = 1
	DefaultMaxSize        = 10
	DefaultConnectTimeout = 10 * time.Second
	DefaultAcquireTimeout = 30 * time.Second
	DefaultDrainTimeout   = 30 * time.Second
	DefaultSlowThreshold  = 200 * time.Millisecond
)

// dbNamePattern restricts database names to plain identifiers, so they
// may be embedded in the CREATE DATABASE statements safely.
var dbNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// Settings contains the connection and pool settings of a Manager.
// A Manager keeps a normalized copy of Settings, so changing a Settings
// value after passing it to Manager.Configure has no effect.
type Settings struct {
	// Dialect names a registered Dialect, e.g., mysql, postgres, or
	// sqlite. The mysql dialect is used when it is empty.
	Dialect string

	Host     string
	Port     int // the dialect default port is used if zero
	User     string
	Password string

	// Name is the database name. For the sqlite dialect, it is the
	// database file path instead.
	Name string

	// Params are appended to the driver DSN as extra parameters,
	// e.g., sslmode=disable for postgres or charset=utf8mb4 for mysql.
	Params map[string]string

	// Autocommit controls if statements which are executed outside
	// of explicit transactions are committed implicitly. It defaults to
	// false for mysql and may not be disabled for other dialects.
	Autocommit *bool

	// Autoclose registers a process shutdown hook which closes the
	// pool on SIGINT or SIGTERM. It defaults to true.
	Autoclose *bool

	MinSize int // connections which are opened at pool creation
	MaxSize int // upper bound of the concurrently leased connections

	// Recycle is the maximum lifetime of a connection. Zero keeps
	// connections forever.
	Recycle time.Duration

	// ConnectTimeout bounds the pool creation, including the database
	// auto-creation and the connections warm up.
	ConnectTimeout time.Duration

	// AcquireTimeout bounds the wait for a free connection. When it
	// elapses, cerr.ErrPoolExhausted is returned.
	AcquireTimeout time.Duration

	// DrainTimeout bounds the wait of Close for in-flight leases.
	// After that, remaining connections are closed forcefully.
	DrainTimeout time.Duration

	// KeepAlive pings each connection when it is leased and replaces
	// it once if it was found dead.
	KeepAlive bool

	// SlowThreshold is the minimum duration of a statement which is
	// logged as a slow query.
	SlowThreshold time.Duration
}

// normalize validates s against the d dialect and returns a copy of it
// with defaults filled in.
func (s Settings) normalize(d Dialect) (Settings, error) {
	if d.NeedsServer() {
		switch {
		case s.Host == "":
			return s, fmt.Errorf("%w: host is required", ErrInvalidSettings)
		case s.User == "":
			return s, fmt.Errorf("%w: user is required", ErrInvalidSettings)
		case !dbNamePattern.MatchString(s.Name):
			return s, fmt.Errorf(
				"%w: database name %q is not a plain identifier",
				ErrInvalidSettings, s.Name,
			)
		}
	} else if s.Name == "" {
		return s, fmt.Errorf("%w: database name is required", ErrInvalidSettings)
	}
	s.Dialect = d.Name()
	if s.Port == 0 {
		s.Port = d.DefaultPort()
	}
	if s.Port < 0 || s.Port > 65535 {
		return s, fmt.Errorf("%w: port %d is out of range", ErrInvalidSettings, s.Port)
	}
	autocommit := !d.ManualCommit()
	if s.Autocommit != nil {
		autocommit = *s.Autocommit
	}
	if !autocommit && !d.ManualCommit() {
		return s, fmt.Errorf(
			"%w: autocommit may not be disabled for %s",
			ErrInvalidSettings, d.Name(),
		)
	}
	autoclose := true
	if s.Autoclose != nil {
		autoclose = *s.Autoclose
	}
	s.Autocommit, s.Autoclose = &autocommit, &autoclose
	if s.MaxSize == 0 {
		s.MaxSize = DefaultMaxSize
	}
	if s.MinSize == 0 {
		s.MinSize = min(DefaultMinSize, s.MaxSize)
	}
	switch {
	case s.MaxSize < 0 || s.MinSize < 0:
		return s, fmt.Errorf("%w: pool sizes must be positive", ErrInvalidSettings)
	case s.MinSize > s.MaxSize:
		return s, fmt.Errorf(
			"%w: min size %d is greater than max size %d",
			ErrInvalidSettings, s.MinSize, s.MaxSize,
		)
	case s.Recycle < 0:
		return s, fmt.Errorf("%w: negative recycle interval", ErrInvalidSettings)
	}
	setDefault(&s.ConnectTimeout, DefaultConnectTimeout)
	setDefault(&s.AcquireTimeout, DefaultAcquireTimeout)
	setDefault(&s.DrainTimeout, DefaultDrainTimeout)
	setDefault(&s.SlowThreshold, DefaultSlowThreshold)
	if len(s.Params) > 0 {
		params := make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			params[k] = v
		}
		s.Params = params
	}
	return s, nil
}

func setDefault(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// LogValue implements slog.LogValuer, hiding the password.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("dialect", s.Dialect),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.String("user", s.User),
		slog.String("name", s.Name),
		slog.Int("min_size", s.MinSize),
		slog.Int("max_size", s.MaxSize),
	)
}

// Validate reports if s would be accepted by Manager.Configure.
func (s Settings) Validate() error {
	d, err := LookupDialect(s.Dialect)
	if err != nil {
		return err
	}
	_, err = s.normalize(d)
	return err
}
