// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the ormysql
// project. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command can be used for the database management actions.
//
//	./ormysql [-c /path/of/config.yaml]            # start web server
//	./ormysql db create [-c /path/of/config.yaml]  # create database
//	./ormysql db migrate [--plan] [-c /path/of/config.yaml]
//	./ormysql db init-dev [-c /path/of/config.yaml]
//	./ormysql db ping [-c /path/of/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momeni/ormysql/pkg/adapter/config"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/routes"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ormysql",
	Short: "A lightweight ORM layer with a lazily created connections pool",
	Long: `A lightweight ORM layer over MySQL (and PostgreSQL or SQLite)
which provides model repositories, filtering, table migrations, and
session and transaction scopes over one bounded connections pool.
The pool is created lazily on its first use, creating the configured
database automatically if it is missing, and it is closed gracefully
when the process receives SIGINT or SIGTERM.
The root command serves a small accounts REST API which exercises the
transaction scope by transferring money between accounts.`,
	RunE:          startWebServer,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// shutdownTimeout bounds the graceful shutdown of the web server.
const shutdownTimeout = 10 * time.Second

func startWebServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()
	c, m, err := loadManager(withoutShutdownHook)
	if err != nil {
		return err
	}
	defer closeManager(m) // after the server drains its requests
	e := c.Gin.NewEngine()
	if err = routes.Register(e, m, c.Usecases); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	srv := &http.Server{Addr: c.Gin.Address, Handler: e}
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "serving REST API", slog.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return fmt.Errorf("running Gin engine: %w", err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("running Gin engine: %w", err)
	}
	return nil
}

// loadManager loads the configuration file, installs its log handler,
// and creates a connections pool manager (without connecting yet).
// withoutShutdownHook disables the autoclose setting, so signals do not
// close the pool while the web server is still draining its requests.
func withoutShutdownHook(d *config.Database) {
	autoclose := false
	d.Autoclose = &autoclose
}

func loadManager(mods ...func(d *config.Database)) (
	*config.Config, *gormdb.Manager, error,
) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	c.Log.Install(os.Stderr)
	for _, mod := range mods {
		mod(&c.Database)
	}
	m, err := c.Database.Manager()
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

func closeManager(m *gormdb.Manager) {
	ctx := context.Background()
	if err := m.Shutdown(ctx); err != nil {
		log.Error(ctx, "closing connections pool", log.Err("err", err))
	}
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code is
// zero for success and one for failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}
