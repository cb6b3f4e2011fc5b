// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"fmt"
	"log/slog"
)

// Valuer returns an Attr for the given slog.LogValuer value.
func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Stringer returns an Attr which is resolved lazily by calling the
// String method of value, only if the record is going to be handled.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.Any(key, lazyString{value})
}

type lazyString struct {
	s fmt.Stringer
}

func (ls lazyString) LogValue() slog.Value {
	if ls.s == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(ls.s.String())
}
