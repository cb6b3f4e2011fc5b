// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"cmp"
	"fmt"
)

// OutOfRangeError indicates that the Name setting had a Value which
// was less than its Min or greater than its Max boundary.
type OutOfRangeError[T cmp.Ordered] struct {
	Name     string
	Value    T
	Min, Max *T // nil boundaries are not checked
}

func (e *OutOfRangeError[T]) Error() string {
	switch {
	case e.Min != nil && e.Value < *e.Min:
		return fmt.Sprintf("%s (%v) is less than %v", e.Name, e.Value, *e.Min)
	default:
		return fmt.Sprintf("%s (%v) is greater than %v", e.Name, e.Value, *e.Max)
	}
}

// VerifyRange verifies that the name setting is either nil or is
// within the minb and maxb boundaries. Nil boundaries are ignored.
func VerifyRange[T cmp.Ordered](name string, value, minb, maxb *T) error {
	if value == nil {
		return nil
	}
	if (minb != nil && *value < *minb) || (maxb != nil && *value > *maxb) {
		return &OutOfRangeError[T]{
			Name: name, Value: *value, Min: minb, Max: maxb,
		}
	}
	return nil
}
