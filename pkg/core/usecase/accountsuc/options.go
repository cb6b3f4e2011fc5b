// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package accountsuc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTransferLimit is wrapped when a transfer amount is more than the
// configured maximum transfer amount.
var ErrTransferLimit = errors.New("transfer limit is exceeded")

// Option is a functional option for the accounts use case.
type Option func(uc *UseCase) error

// WithMaxTransfer option limits the amount of each transfer.
// This option may be passed to the New() function.
func WithMaxTransfer(limit decimal.Decimal) Option {
	return func(uc *UseCase) error {
		if !limit.IsPositive() {
			return fmt.Errorf("max transfer (%s) is not positive", limit)
		}
		if !uc.maxTransfer.IsZero() {
			return errors.New("max transfer is already configured")
		}
		uc.maxTransfer = limit
		return nil
	}
}
