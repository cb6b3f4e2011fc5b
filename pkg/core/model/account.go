// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., as required by ORM
// libraries) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
// The gorm tags describe the table columns which are created by the
// schema migration; the table names follow the snake_case plural of
// the struct names unless a TableName method overrides them.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a balance holder which takes part in transfers.
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Owner     string          `gorm:"size:255;not null;index" json:"owner"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transfer asks to move Amount from the From account to the To account.
type Transfer struct {
	From   uint            `json:"from"`
	To     uint            `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// These errors report transfers which violate the business rules.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrSameAccount       = errors.New("source and destination are the same")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Validate checks the static rules of t, those which do not depend on
// the stored balances.
func (t Transfer) Validate() error {
	switch {
	case !t.Amount.IsPositive():
		return ErrNonPositiveAmount
	case t.From == t.To:
		return ErrSameAccount
	}
	return nil
}
