// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a comparison operator of a Cond.
type Op string

// These operators are supported by the repositories. Their lookup
// names may be used as suffixes of field names in ParseLookups, e.g.,
// "name__like" or "id__in".
const (
	OpEq     Op = "exact"
	OpNe     Op = "ne"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpLike   Op = "like"
	OpIn     Op = "in"
	OpIsNull Op = "isnull"
)

var knownOps = map[Op]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true,
	OpLte: true, OpLike: true, OpIn: true, OpIsNull: true,
}

// Cond is a single condition on a model field. Field may be given as
// the column name (e.g., "owner_id") or as the Go field name.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func (c Cond) String() string {
	return fmt.Sprintf("%s__%s=%v", c.Field, c.Op, c.Value)
}

// Filter is a conjunction of conditions. An empty Filter matches all
// rows.
type Filter []Cond

func Eq(field string, v any) Cond   { return Cond{field, OpEq, v} }
func Ne(field string, v any) Cond   { return Cond{field, OpNe, v} }
func Gt(field string, v any) Cond   { return Cond{field, OpGt, v} }
func Gte(field string, v any) Cond  { return Cond{field, OpGte, v} }
func Lt(field string, v any) Cond   { return Cond{field, OpLt, v} }
func Lte(field string, v any) Cond  { return Cond{field, OpLte, v} }
func Like(field string, v any) Cond { return Cond{field, OpLike, v} }
func In(field string, v any) Cond   { return Cond{field, OpIn, v} }

// IsNull matches rows where field is NULL (or is not NULL if null is
// false).
func IsNull(field string, null bool) Cond {
	return Cond{field, OpIsNull, null}
}

// Where builds a Filter from conds.
func Where(conds ...Cond) Filter {
	return Filter(conds)
}

// ParseLookups converts a lookups map, such as
//
//	{"name__like": "%ali%", "id__in": []int{1, 2}, "active": true}
//
// into a Filter. Keys without a known "__op" suffix are treated as
// equality conditions. Conditions are sorted by their keys, so the
// generated SQL is deterministic.
func ParseLookups(lookups map[string]any) (Filter, error) {
	keys := make([]string, 0, len(lookups))
	for k := range lookups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	f := make(Filter, 0, len(keys))
	for _, k := range keys {
		field, op := k, OpEq
		if i := strings.LastIndex(k, "__"); i >= 0 {
			candidate := Op(k[i+2:])
			if !knownOps[candidate] {
				return nil, fmt.Errorf("unknown lookup %q in %q", candidate, k)
			}
			field, op = k[:i], candidate
		}
		if field == "" {
			return nil, fmt.Errorf("empty field name in %q", k)
		}
		f = append(f, Cond{Field: field, Op: op, Value: lookups[k]})
	}
	return f, nil
}

// Options controls ordering and size of a listing.
type Options struct {
	// OrderBy lists field names; a "-" prefix asks for descending
	// order of that field.
	OrderBy []string
	Limit   int
	Offset  int

	// ForUpdate locks the selected rows until the end of the running
	// transaction, where the DBMS supports row locks.
	ForUpdate bool
}

// Option is a functional option for the listing operations.
type Option func(o *Options)

// OrderBy appends fields to the ordering, e.g., OrderBy("-id").
func OrderBy(fields ...string) Option {
	return func(o *Options) {
		o.OrderBy = append(o.OrderBy, fields...)
	}
}

// Limit restricts the number of returned rows. Non-positive values
// remove the restriction.
func Limit(n int) Option {
	return func(o *Options) {
		o.Limit = n
	}
}

// Offset skips the first n rows.
func Offset(n int) Option {
	return func(o *Options) {
		o.Offset = n
	}
}

// NewOptions applies opts on an empty Options.
// ForUpdate asks for locking the selected rows.
func ForUpdate() Option {
	return func(o *Options) {
		o.ForUpdate = true
	}
}

func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
