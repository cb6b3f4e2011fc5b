// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package accountsrs realizes the accounts resource, allowing the
// accounts and transfers REST APIs to be accepted and delegated to
// the accounts use cases respectively.
package accountsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/ormysql/pkg/core/usecase/accountsuc"
)

type resource struct {
	accounts *accountsuc.UseCase
}

// Register instantiates a resource adapting the accounts use case
// instance with the relevant REST APIs including:
//  1. GET request to /accounts for listing accounts (owner and limit
//     query params are optional),
//  2. POST request to /accounts for opening an account,
//  3. GET request to /accounts/:id for reading an account,
//  4. POST request to /accounts/:id/deposit for a deposit,
//  5. POST request to /transfers for transferring between accounts.
func Register(r *gin.RouterGroup, accounts *accountsuc.UseCase) {
	rs := &resource{accounts: accounts}
	r.GET("accounts", rs.ListAccounts)
	r.POST("accounts", rs.OpenAccount)
	r.GET("accounts/:id", rs.GetAccount)
	r.POST("accounts/:id/deposit", rs.Deposit)
	r.POST("transfers", rs.Transfer)
}

func (rs *resource) ListAccounts(c *gin.Context) {
	req := rs.DserListReq(c)
	if req == nil {
		return
	}
	accounts, err := rs.accounts.List(c, req.Lookups, req.Limit)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (rs *resource) OpenAccount(c *gin.Context) {
	req := rs.DserOpenReq(c)
	if req == nil {
		return
	}
	a, err := rs.accounts.Open(c, req.Owner, req.Balance)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (rs *resource) GetAccount(c *gin.Context) {
	id, ok := rs.DserID(c)
	if !ok {
		return
	}
	a, err := rs.accounts.Get(c, id)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (rs *resource) Deposit(c *gin.Context) {
	req := rs.DserDepositReq(c)
	if req == nil {
		return
	}
	a, err := rs.accounts.Deposit(c, req.ID, req.Amount)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (rs *resource) Transfer(c *gin.Context) {
	t := rs.DserTransferReq(c)
	if t == nil {
		return
	}
	from, to, err := rs.accounts.Transfer(c, *t)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to})
}
