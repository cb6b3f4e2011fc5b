// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migration keeps a registry of gorm models and creates their
// tables. Tables are planned so that each table comes after the tables
// which it references by its belongs-to relationships, and a table is
// only created if it does not exist yet. Existing tables are never
// altered or dropped.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm/schema"
)

// ErrCyclicDependency is returned by Plan when registered models
// reference each other in a cycle.
var ErrCyclicDependency = errors.New("cyclic table dependency")

// Registry is a set of models whose tables should exist.
// It implements the repo.Schema interface.
type Registry struct {
	mu     sync.Mutex
	models []any
	tables map[string]bool

	cache *sync.Map
	namer schema.Namer
}

var _ repo.Schema = (*Registry)(nil)

// New instantiates a Registry and registers models in it.
func New(models ...any) (*Registry, error) {
	r := &Registry{
		tables: map[string]bool{},
		cache:  &sync.Map{},
		namer:  schema.NamingStrategy{IdentifierMaxLength: 64},
	}
	if err := r.Register(models...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds models to r. Each model has to be a pointer to a gorm
// model struct. Registering a model twice is a no-op.
func (r *Registry) Register(models ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		s, err := schema.Parse(m, r.cache, r.namer)
		if err != nil {
			return fmt.Errorf("parsing %T: %w", m, err)
		}
		if r.tables[s.Table] {
			continue
		}
		r.tables[s.Table] = true
		r.models = append(r.models, m)
	}
	return nil
}

// Models returns the registered models in their registration order.
func (r *Registry) Models() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.models...)
}

// Plan returns the registered table names in their creation order.
func (r *Registry) Plan() ([]string, error) {
	ss, err := r.plan()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ss))
	for _, s := range ss {
		names = append(names, s.Table)
	}
	return names, nil
}

type planned struct {
	*schema.Schema
	model any
}

func (r *Registry) plan() ([]planned, error) {
	models := r.Models()
	byTable := make(map[string]planned, len(models))
	order := make([]string, 0, len(models))
	for _, m := range models {
		s, err := schema.Parse(m, r.cache, r.namer)
		if err != nil {
			return nil, fmt.Errorf("parsing %T: %w", m, err)
		}
		byTable[s.Table] = planned{Schema: s, model: m}
		order = append(order, s.Table)
	}
	// states: absent=unvisited, false=visiting, true=done
	state := make(map[string]bool, len(order))
	result := make([]planned, 0, len(order))
	var visit func(table string, path []string) error
	visit = func(table string, path []string) error {
		done, seen := state[table]
		switch {
		case done:
			return nil
		case seen:
			return fmt.Errorf("%w: %v", ErrCyclicDependency, append(path, table))
		}
		state[table] = false
		p := byTable[table]
		for _, dep := range dependencies(p.Schema) {
			if _, ok := byTable[dep]; !ok || dep == table {
				continue // unregistered tables should exist already
			}
			if err := visit(dep, append(path, table)); err != nil {
				return err
			}
		}
		state[table] = true
		result = append(result, p)
		return nil
	}
	for _, t := range order {
		if err := visit(t, nil); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// dependencies lists the tables which are referenced by s.
func dependencies(s *schema.Schema) []string {
	var deps []string
	for _, rel := range s.Relationships.Relations {
		if rel.Type == schema.BelongsTo && rel.FieldSchema != nil {
			deps = append(deps, rel.FieldSchema.Table)
		}
	}
	return deps
}

// Migrate creates the missing tables in their planned order using q.
// The q should be a transaction where the DBMS supports transactional
// DDL, so a failed migration leaves no partial schema behind.
func (r *Registry) Migrate(ctx context.Context, q repo.Queryer) ([]string, error) {
	ps, err := r.plan()
	if err != nil {
		return nil, err
	}
	m := gormdb.GORM(ctx, q).Migrator()
	var created []string
	for _, p := range ps {
		if m.HasTable(p.Table) {
			log.Debug(ctx, "table exists", slog.String("table", p.Table))
			continue
		}
		if err := m.CreateTable(p.model); err != nil {
			return created, fmt.Errorf("creating %s table: %w", p.Table, err)
		}
		log.Info(ctx, "table is created", slog.String("table", p.Table))
		created = append(created, p.Table)
	}
	return created, nil
}

// Default returns a Registry of the users, user metas, and accounts
// models.
func Default() (*Registry, error) {
	return New(&model.User{}, &model.UserMeta{}, &model.Account{})
}
