// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ormysql/pkg/adapter/config"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/accountsrp"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/accountsrs"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/poolrs"
	"github.com/momeni/ormysql/pkg/core/repo"
)

// Pool is a connections pool which reports its counters too.
type Pool interface {
	repo.Pool
	repo.StatsReporter
}

// Register instantiates relevant repositories and use cases based on
// the u use cases configuration settings. The p connections pool is
// passed to the use case instances, so they may acquire and release
// connections and transactions on demand. These connections and
// transactions are passed to the repositories later in order to run
// relevant queries on them. Each use case package is named like
// accountsuc and each repository package is named like accountsrp.
// Register also instantiates the "resource" structs, from packages
// which are named like accountsrs, in order to adapt the use cases
// with the REST APIs, and registers them on the e engine under the
// /api/v1 prefix.
func Register(e *gin.Engine, p Pool, u config.Usecases) error {
	accountsUseCase, err := u.Accounts.NewUseCase(p, accountsrp.New())
	if err != nil {
		return fmt.Errorf("creating accounts use case: %w", err)
	}
	r := e.Group("/api/v1")
	accountsrs.Register(r, accountsUseCase)
	poolrs.Register(r, p)
	return nil
}
