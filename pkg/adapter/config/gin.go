// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"github.com/momeni/ormysql/pkg/adapter/restful/gin"
)

// DefaultAddress is the listening address of the REST API server when
// the gin.address item is missing.
const DefaultAddress = "127.0.0.1:8080"

// Gin contains the gin-gonic related configuration settings.
type Gin struct {
	Logger   *bool  `yaml:"logger,omitempty"`   // Whether to log requests by slog
	Recovery *bool  `yaml:"recovery,omitempty"` // Whether to recover panics
	Address  string `yaml:"address,omitempty"`  // host:port of the server
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings. Requests and recovered panics are logged by the
// default slog logger.
func (g Gin) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if g.Logger != nil && *g.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if g.Recovery != nil && *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}
