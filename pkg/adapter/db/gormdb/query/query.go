// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package query compiles the repo.Filter and repo.Options structures
// into gorm clause expressions. Field names are resolved against the
// parsed schema of a model, so only known columns may reach the SQL
// text, and all values are bound as statement parameters.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var (
	// ErrUnknownField is wrapped when a filter, an order, or an update
	// refers to a field which is not a column of the model.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidLookup is wrapped when a lookup is given a value
	// which it cannot use, e.g., a non-slice value for the in lookup.
	ErrInvalidLookup = errors.New("invalid lookup value")
)

// Schema parses the schema of model with the naming strategy and
// the schemas cache of gdb.
func Schema(gdb *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: gdb}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parsing %T schema: %w", model, err)
	}
	return stmt.Schema, nil
}

// Column resolves name, either a Go field name or a column name, into
// a column of sch.
func Column(sch *schema.Schema, name string) (clause.Column, error) {
	f := sch.LookUpField(name)
	if f == nil || f.DBName == "" {
		return clause.Column{}, cerr.BadRequest(fmt.Errorf(
			"%w: %q is not a column of %s", ErrUnknownField, name, sch.Table,
		))
	}
	return clause.Column{Table: clause.CurrentTable, Name: f.DBName}, nil
}

// Compile converts f into one expression per condition. All of them
// have to hold, so they may be passed to gorm.DB.Clauses as a WHERE.
func Compile(sch *schema.Schema, f repo.Filter) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(f))
	for _, c := range f {
		col, err := Column(sch, c.Field)
		if err != nil {
			return nil, err
		}
		e, err := compile(col, c)
		if err != nil {
			return nil, cerr.BadRequest(err)
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func compile(col clause.Column, c repo.Cond) (clause.Expression, error) {
	switch c.Op {
	case repo.OpEq, "":
		return clause.Eq{Column: col, Value: c.Value}, nil
	case repo.OpNe:
		return clause.Neq{Column: col, Value: c.Value}, nil
	case repo.OpGt:
		return clause.Gt{Column: col, Value: c.Value}, nil
	case repo.OpGte:
		return clause.Gte{Column: col, Value: c.Value}, nil
	case repo.OpLt:
		return clause.Lt{Column: col, Value: c.Value}, nil
	case repo.OpLte:
		return clause.Lte{Column: col, Value: c.Value}, nil
	case repo.OpLike:
		return clause.Like{Column: col, Value: c.Value}, nil
	case repo.OpIn:
		vals, err := values(c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLookup, c, err)
		}
		return clause.IN{Column: col, Values: vals}, nil
	case repo.OpIsNull:
		null, ok := c.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expecting a bool", ErrInvalidLookup, c)
		}
		if null {
			return clause.Eq{Column: col, Value: nil}, nil
		}
		return clause.Neq{Column: col, Value: nil}, nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown lookup", ErrInvalidLookup, c)
	}
}

// values spreads a slice or an array into a []any.
func values(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("expecting a slice, got %T", v)
	}
	vals := make([]any, rv.Len())
	for i := range vals {
		vals[i] = rv.Index(i).Interface()
	}
	return vals, nil
}

// Order converts the OrderBy field names into an ORDER BY clause.
// A "-" prefix asks for the descending order of its field.
func Order(sch *schema.Schema, fields []string) (clause.OrderBy, error) {
	ob := clause.OrderBy{Columns: make([]clause.OrderByColumn, 0, len(fields))}
	for _, name := range fields {
		desc := strings.HasPrefix(name, "-")
		col, err := Column(sch, strings.TrimPrefix(name, "-"))
		if err != nil {
			return ob, err
		}
		ob.Columns = append(ob.Columns, clause.OrderByColumn{
			Column: col, Desc: desc,
		})
	}
	return ob, nil
}

// Updates resolves the keys of updates into column names.
func Updates(sch *schema.Schema, updates map[string]any) (map[string]any, error) {
	m := make(map[string]any, len(updates))
	for k, v := range updates {
		col, err := Column(sch, k)
		if err != nil {
			return nil, err
		}
		m[col.Name] = v
	}
	return m, nil
}

// Apply adds the f conditions and the o options to gdb.
func Apply(
	gdb *gorm.DB, sch *schema.Schema, f repo.Filter, o repo.Options,
) (*gorm.DB, error) {
	gdb, err := Where(gdb, sch, f)
	if err != nil {
		return nil, err
	}
	if len(o.OrderBy) > 0 {
		ob, err := Order(sch, o.OrderBy)
		if err != nil {
			return nil, err
		}
		gdb = gdb.Clauses(ob)
	}
	if o.Limit > 0 {
		gdb = gdb.Limit(o.Limit)
	}
	if o.Offset > 0 {
		gdb = gdb.Offset(o.Offset)
	}
	// sqlite has no row locks; its transactions lock the whole file
	if o.ForUpdate && gdb.Dialector.Name() != "sqlite" {
		gdb = gdb.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return gdb, nil
}

// Where adds the f conditions to gdb.
func Where(gdb *gorm.DB, sch *schema.Schema, f repo.Filter) (*gorm.DB, error) {
	if len(f) == 0 {
		return gdb, nil
	}
	exprs, err := Compile(sch, f)
	if err != nil {
		return nil, err
	}
	return gdb.Clauses(clause.Where{Exprs: exprs}), nil
}
