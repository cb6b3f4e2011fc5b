// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the ormysql command to instantiate
// different components, from the adapter or use cases layers, using
// those loaded configuration settings.
// The parsed and validated configurations are passed to their ultimate
// components as a series of individual params (for the mandatory
// items) and a series of functional options (for the optional items),
// so each component validates its own settings again.
package config

import (
	"fmt"
	"os"

	"github.com/momeni/ormysql/pkg/adapter/config/settings"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables which override
// the database settings of a configuration file, e.g., the
// ORMYSQL_DB_PASSWORD variable overrides the database.password item.
const EnvPrefix = "ORMYSQL_DB_"

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases.
type Config struct {
	Database Database `yaml:"database"` // connections pool settings
	Gin      Gin      `yaml:"gin"`      // Gin-Gonic instantiation settings
	Log      Log      `yaml:"log"`      // slog handler settings
	Usecases Usecases `yaml:"usecases"` // use cases configuration settings
}

// Load reads the path configuration file, overrides its database
// settings by the ORMYSQL_DB_* environment variables, and validates
// and normalizes the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c, err := Parse(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return c, nil
}

// Parse unmarshals data as a Config instance. Extra items in the data
// are ignored and missing items take their default values. Thereafter,
// the lookupEnv function is consulted for overriding the database
// settings and the overridden Config is validated and normalized.
// The os.LookupEnv may be passed as lookupEnv in order to use the
// environment variables of the current process.
func Parse(
	data []byte, lookupEnv func(key string) (string, bool),
) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if lookupEnv != nil {
		if err := c.Database.overrideFromEnv(lookupEnv); err != nil {
			return nil, fmt.Errorf("overriding from env: %w", err)
		}
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values with
// their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	settings.Nil2Zero(&c.Gin.Logger)
	settings.Nil2Zero(&c.Gin.Recovery)
	if c.Gin.Address == "" {
		c.Gin.Address = DefaultAddress
	}
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	if err := c.Log.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating log settings: %w", err)
	}
	if err := c.Usecases.Accounts.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating accounts settings: %w", err)
	}
	return nil
}
