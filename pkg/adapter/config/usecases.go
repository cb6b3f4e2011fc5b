// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"

	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/momeni/ormysql/pkg/core/usecase/accountsuc"
	"github.com/shopspring/decimal"
)

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Accounts Accounts `yaml:"accounts"` // accounts use cases settings
}

// Accounts contains the configuration settings for the accounts use
// cases.
type Accounts struct {
	// MaxTransfer limits the amount of each transfer.
	// A nil value indicates that transfers are not limited.
	MaxTransfer *decimal.Decimal `yaml:"max-transfer,omitempty"`
}

// ValidateAndNormalize ensures that a given max transfer is positive.
func (a *Accounts) ValidateAndNormalize() error {
	if a.MaxTransfer != nil && !a.MaxTransfer.IsPositive() {
		return errors.New("max-transfer must be positive")
	}
	return nil
}

// NewUseCase instantiates a new accounts use case based on the
// settings in the `a` struct.
func (a Accounts) NewUseCase(
	p repo.Pool, r repo.Accounts,
) (*accountsuc.UseCase, error) {
	opts := make([]accountsuc.Option, 0, 1)
	if a.MaxTransfer != nil {
		opts = append(opts, accountsuc.WithMaxTransfer(*a.MaxTransfer))
	}
	return accountsuc.New(p, r, opts...)
}
