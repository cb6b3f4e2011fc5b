// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine, so other packages may create
// an engine with the slog based request logging and panic recovery
// middlewares without importing gin-gonic and ginslog directly.
package gin

import (
	"log/slog"

	"github.com/FabienMht/ginslog/logger"
	"github.com/FabienMht/ginslog/recovery"
	"github.com/gin-gonic/gin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Logger logs each request by the default slog logger.
func Logger() HandlerFunc {
	return logger.New(slog.Default())
}

// Recovery recovers panics of handlers, logging them by the default
// slog logger and responding with 500 status code.
func Recovery() HandlerFunc {
	return recovery.New(slog.Default())
}
