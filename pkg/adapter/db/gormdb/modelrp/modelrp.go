// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package modelrp provides a generic gorm based implementation of the
// repo.Models interface. Every operation runs on the repo.Route which
// was chosen when the repository was bound, so the same code serves
// leased sessions, open transactions, and one-off pool calls.
package modelrp

import (
	"context"
	"errors"
	"fmt"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/query"
	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Repo is a repository of T models.
type Repo[T any] struct{}

var _ repo.Models[struct{ ID uint }] = New[struct{ ID uint }]()

// New instantiates a Repo for the T model.
func New[T any]() *Repo[T] {
	return &Repo[T]{}
}

// On binds r to the rt route.
func (r *Repo[T]) On(rt repo.Route) repo.ModelQueryer[T] {
	return Bind[T](rt)
}

// Conn binds r to the c leased connection.
func (r *Repo[T]) Conn(c repo.Conn) repo.ModelQueryer[T] {
	return Bind[T](repo.Via(c))
}

// Tx binds r to the tx transaction.
func (r *Repo[T]) Tx(tx repo.Tx) repo.ModelQueryer[T] {
	return Bind[T](repo.Via(tx))
}

// Pool binds r to p, so each operation leases a fresh connection.
func (r *Repo[T]) Pool(p repo.Pool) repo.ModelQueryer[T] {
	return Bind[T](repo.Ephemeral(p))
}

// Queryer implements the repo.ModelQueryer[T] interface on a route.
// It may be embedded by model specific queryers which need to run
// their own statements using its Run method.
type Queryer[T any] struct {
	route repo.Route
}

// Bind returns a Queryer which runs on rt.
func Bind[T any](rt repo.Route) *Queryer[T] {
	return &Queryer[T]{route: rt}
}

// Handler is called by Run with a gorm handle whose model is set to
// T and with the parsed schema of T.
type Handler func(ctx context.Context, gdb *gorm.DB, sch *schema.Schema) error

// Run calls h on the route of q.
func (q *Queryer[T]) Run(ctx context.Context, h Handler) error {
	return q.route.Run(ctx, func(ctx context.Context, rq repo.Queryer) error {
		gdb := gormdb.GORM(ctx, rq)
		sch, err := query.Schema(gdb, new(T))
		if err != nil {
			return err
		}
		return h(ctx, gdb.Model(new(T)), sch)
	})
}

func (q *Queryer[T]) Create(ctx context.Context, m *T) error {
	return q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		if err := gdb.Create(m).Error; err != nil {
			return fmt.Errorf("inserting into %s: %w", sch.Table, err)
		}
		return nil
	})
}

func (q *Queryer[T]) All(ctx context.Context, opts ...repo.Option) ([]T, error) {
	return q.Filter(ctx, nil, opts...)
}

func (q *Queryer[T]) Filter(
	ctx context.Context, f repo.Filter, opts ...repo.Option,
) (ms []T, err error) {
	err = q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		gdb, err := query.Apply(gdb, sch, f, repo.NewOptions(opts...))
		if err != nil {
			return err
		}
		if err = gdb.Find(&ms).Error; err != nil {
			return fmt.Errorf("selecting from %s: %w", sch.Table, err)
		}
		return nil
	})
	return ms, err
}

// Get returns the first row which matches f. Rows are ordered by the
// given options and then by their primary key.
func (q *Queryer[T]) Get(
	ctx context.Context, f repo.Filter, opts ...repo.Option,
) (*T, error) {
	m := new(T)
	err := q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		gdb, err := query.Apply(gdb, sch, f, repo.NewOptions(opts...))
		if err != nil {
			return err
		}
		err = gdb.First(m).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return cerr.NotFound(fmt.Errorf(
				"%s %v: %w", sch.Name, f, repo.ErrNoRows,
			))
		case err != nil:
			return fmt.Errorf("selecting from %s: %w", sch.Table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (q *Queryer[T]) GetOrCreate(
	ctx context.Context, f repo.Filter, init *T,
) (*T, bool, error) {
	m, err := q.Get(ctx, f)
	switch {
	case err == nil:
		return m, false, nil
	case !errors.Is(err, repo.ErrNoRows):
		return nil, false, err
	}
	if err = q.Create(ctx, init); err != nil {
		return nil, false, err
	}
	return init, true, nil
}

func (q *Queryer[T]) Update(
	ctx context.Context, f repo.Filter, updates map[string]any,
) (n int64, err error) {
	if len(f) == 0 {
		return 0, cerr.BadRequest(repo.ErrUnfiltered)
	}
	err = q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		cols, err := query.Updates(sch, updates)
		if err != nil {
			return err
		}
		gdb, err = query.Where(gdb, sch, f)
		if err != nil {
			return err
		}
		res := gdb.Updates(cols)
		if err = res.Error; err != nil {
			return fmt.Errorf("updating %s: %w", sch.Table, err)
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

func (q *Queryer[T]) Delete(ctx context.Context, f repo.Filter) (n int64, err error) {
	if len(f) == 0 {
		return 0, cerr.BadRequest(repo.ErrUnfiltered)
	}
	err = q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		gdb, err := query.Where(gdb, sch, f)
		if err != nil {
			return err
		}
		res := gdb.Delete(new(T))
		if err = res.Error; err != nil {
			return fmt.Errorf("deleting from %s: %w", sch.Table, err)
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

func (q *Queryer[T]) Count(ctx context.Context, f repo.Filter) (n int64, err error) {
	err = q.Run(ctx, func(_ context.Context, gdb *gorm.DB, sch *schema.Schema) error {
		gdb, err := query.Where(gdb, sch, f)
		if err != nil {
			return err
		}
		if err = gdb.Count(&n).Error; err != nil {
			return fmt.Errorf("counting %s: %w", sch.Table, err)
		}
		return nil
	})
	return n, err
}

func (q *Queryer[T]) Exists(ctx context.Context, f repo.Filter) (bool, error) {
	n, err := q.Count(ctx, f)
	return n > 0, err
}
