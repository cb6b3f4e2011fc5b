// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/momeni/ormysql/pkg/adapter/config/settings"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
)

// Database contains the database connection and pool settings.
// Optional items are pointers, so missing items can be detected and
// left to the gormdb defaults.
type Database struct {
	Dialect  string            `yaml:"dialect,omitempty"` // mysql, postgres, or sqlite
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	User     string            `yaml:"user,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Name     string            `yaml:"name"` // database name or sqlite file path
	Params   map[string]string `yaml:"params,omitempty"`

	Autocommit *bool `yaml:"autocommit,omitempty"`
	Autoclose  *bool `yaml:"autoclose,omitempty"`
	KeepAlive  *bool `yaml:"keep-alive,omitempty"`

	MinSize *int `yaml:"min-size,omitempty"`
	MaxSize *int `yaml:"max-size,omitempty"`

	Recycle        *settings.Duration `yaml:"recycle,omitempty"`
	ConnectTimeout *settings.Duration `yaml:"connect-timeout,omitempty"`
	AcquireTimeout *settings.Duration `yaml:"acquire-timeout,omitempty"`
	DrainTimeout   *settings.Duration `yaml:"drain-timeout,omitempty"`
	SlowThreshold  *settings.Duration `yaml:"slow-threshold,omitempty"`
}

var (
	minPoolSize = 1
	maxPoolSize = 1000
)

// ValidateAndNormalize verifies the pool sizes and asks gormdb to
// validate the remaining settings, so an invalid configuration file
// is rejected before any connection is attempted.
func (d *Database) ValidateAndNormalize() error {
	if err := settings.VerifyRange("max-size", d.MaxSize, &minPoolSize, &maxPoolSize); err != nil {
		return err
	}
	zero := 0
	if err := settings.VerifyRange("min-size", d.MinSize, &zero, d.MaxSize); err != nil {
		return err
	}
	return d.Settings().Validate()
}

// Settings converts d to the gormdb settings.
func (d *Database) Settings() gormdb.Settings {
	return gormdb.Settings{
		Dialect:        d.Dialect,
		Host:           d.Host,
		Port:           d.Port,
		User:           d.User,
		Password:       d.Password,
		Name:           d.Name,
		Params:         d.Params,
		Autocommit:     d.Autocommit,
		Autoclose:      d.Autoclose,
		MinSize:        settings.Value(d.MinSize, 0),
		MaxSize:        settings.Value(d.MaxSize, 0),
		Recycle:        d.Recycle.Std(),
		ConnectTimeout: d.ConnectTimeout.Std(),
		AcquireTimeout: d.AcquireTimeout.Std(),
		DrainTimeout:   d.DrainTimeout.Std(),
		KeepAlive:      settings.Value(d.KeepAlive, false),
		SlowThreshold:  d.SlowThreshold.Std(),
	}
}

// Manager creates a gormdb.Manager which is configured by d.
// No connection is made until the manager is used.
func (d *Database) Manager() (*gormdb.Manager, error) {
	m := gormdb.NewManager()
	if err := m.Configure(d.Settings()); err != nil {
		return nil, fmt.Errorf("configuring database: %w", err)
	}
	return m, nil
}

// overrideFromEnv replaces the d fields whose ORMYSQL_DB_* variables
// are set, e.g., ORMYSQL_DB_HOST or ORMYSQL_DB_MAX_SIZE.
func (d *Database) overrideFromEnv(lookupEnv func(string) (string, bool)) error {
	strs := map[string]*string{
		"DIALECT":  &d.Dialect,
		"HOST":     &d.Host,
		"USER":     &d.User,
		"PASSWORD": &d.Password,
		"NAME":     &d.Name,
	}
	for k, p := range strs {
		if v, ok := lookupEnv(EnvPrefix + k); ok {
			*p = v
		}
	}
	if v, ok := lookupEnv(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		d.Port = port
	}
	ints := map[string]**int{
		"MIN_SIZE": &d.MinSize,
		"MAX_SIZE": &d.MaxSize,
	}
	for k, p := range ints {
		if v, ok := lookupEnv(EnvPrefix + k); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = &n
		}
	}
	bools := map[string]**bool{
		"AUTOCOMMIT": &d.Autocommit,
		"AUTOCLOSE":  &d.Autoclose,
		"KEEP_ALIVE": &d.KeepAlive,
	}
	for k, p := range bools {
		if v, ok := lookupEnv(EnvPrefix + k); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = &b
		}
	}
	return nil
}
