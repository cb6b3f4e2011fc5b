// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/momeni/ormysql/internal/test/sqlitedb"
	"github.com/momeni/ormysql/pkg/adapter/config"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/routes"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type GinTestSuite struct {
	suite.Suite

	Gin *gin.Engine
}

func TestGinTestSuite(t *testing.T) {
	suite.Run(t, new(GinTestSuite))
}

func (gts *GinTestSuite) SetupTest() {
	m := sqlitedb.Migrated(gts.T())
	limit := decimal.NewFromInt(1000)
	gts.Gin = gin.New()
	err := routes.Register(gts.Gin, m, config.Usecases{
		Accounts: config.Accounts{MaxTransfer: &limit},
	})
	gts.Require().NoError(err, "failed to register routes")
}

func (gts *GinTestSuite) do(method, path string, form url.Values) (int, []byte) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, "/api/v1"+path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	gts.Gin.ServeHTTP(w, req)
	b, err := io.ReadAll(w.Result().Body)
	gts.Require().NoError(err, "failed to read response body")
	return w.Code, b
}

func (gts *GinTestSuite) open(owner, balance string) model.Account {
	code, b := gts.do(http.MethodPost, "/accounts", url.Values{
		"owner":   {owner},
		"balance": {balance},
	})
	gts.Require().Equal(http.StatusCreated, code, string(b))
	var a model.Account
	gts.Require().NoError(json.Unmarshal(b, &a))
	return a
}

func (gts *GinTestSuite) get(id uint) model.Account {
	code, b := gts.do(http.MethodGet, fmt.Sprintf("/accounts/%d", id), nil)
	gts.Require().Equal(http.StatusOK, code, string(b))
	var a model.Account
	gts.Require().NoError(json.Unmarshal(b, &a))
	return a
}

func (gts *GinTestSuite) requireBalance(expected int64, a model.Account) {
	gts.Require().True(
		decimal.NewFromInt(expected).Equal(a.Balance),
		"balance of %q: expected %d, got %s", a.Owner, expected, a.Balance,
	)
}

func (gts *GinTestSuite) TestOpenAndGetAccount() {
	a := gts.open("alice", "100")
	gts.NotZero(a.ID)
	gts.Equal("alice", a.Owner)
	gts.requireBalance(100, a)

	got := gts.get(a.ID)
	gts.Equal(a.ID, got.ID)
	gts.requireBalance(100, got)
}

func (gts *GinTestSuite) TestOpenWithoutBalance() {
	a := gts.open("bob", "")
	gts.requireBalance(0, a)
}

func (gts *GinTestSuite) TestInvalidRequests() {
	for _, tc := range []struct {
		name   string
		method string
		path   string
		form   url.Values
		status int
	}{
		{"missing owner", http.MethodPost, "/accounts", url.Values{}, http.StatusBadRequest},
		{"bad balance", http.MethodPost, "/accounts", url.Values{
			"owner": {"x"}, "balance": {"lots"},
		}, http.StatusBadRequest},
		{"negative balance", http.MethodPost, "/accounts", url.Values{
			"owner": {"x"}, "balance": {"-5"},
		}, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/accounts/abc", nil, http.StatusBadRequest},
		{"missing account", http.MethodGet, "/accounts/999", nil, http.StatusNotFound},
		{"zero deposit", http.MethodPost, "/accounts/1/deposit", url.Values{
			"amount": {"0"},
		}, http.StatusBadRequest},
		{"same accounts", http.MethodPost, "/transfers", url.Values{
			"from": {"1"}, "to": {"1"}, "amount": {"5"},
		}, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/accounts?limit=0x", nil, http.StatusBadRequest},
	} {
		code, b := gts.do(tc.method, tc.path, tc.form)
		gts.Equal(tc.status, code, "%s: %s", tc.name, b)
	}
}

func (gts *GinTestSuite) TestListAccounts() {
	gts.open("alice", "10")
	gts.open("bob", "20")
	gts.open("alison", "30")

	list := func(query string) []string {
		code, b := gts.do(http.MethodGet, "/accounts"+query, nil)
		gts.Require().Equal(http.StatusOK, code, string(b))
		var accounts []model.Account
		gts.Require().NoError(json.Unmarshal(b, &accounts))
		owners := make([]string, 0, len(accounts))
		for _, a := range accounts {
			owners = append(owners, a.Owner)
		}
		return owners
	}
	gts.Equal([]string{"alice", "bob", "alison"}, list(""))
	gts.Equal([]string{"bob"}, list("?owner=bob"))
	gts.Equal([]string{"alice", "alison"}, list("?owner_like=ali%25"))
	gts.Equal([]string{"alice"}, list("?limit=1"))
}

func (gts *GinTestSuite) TestDeposit() {
	a := gts.open("carol", "5")
	code, b := gts.do(
		http.MethodPost, fmt.Sprintf("/accounts/%d/deposit", a.ID),
		url.Values{"amount": {"45"}},
	)
	gts.Require().Equal(http.StatusOK, code, string(b))
	var got model.Account
	gts.Require().NoError(json.Unmarshal(b, &got))
	gts.requireBalance(50, got)

	code, _ = gts.do(
		http.MethodPost, "/accounts/999/deposit", url.Values{"amount": {"1"}},
	)
	gts.Equal(http.StatusNotFound, code)
}

func (gts *GinTestSuite) TestTransfer() {
	alice := gts.open("alice", "100")
	bob := gts.open("bob", "0")

	transfer := func(amount string) (int, []byte) {
		return gts.do(http.MethodPost, "/transfers", url.Values{
			"from":   {fmt.Sprint(alice.ID)},
			"to":     {fmt.Sprint(bob.ID)},
			"amount": {amount},
		})
	}
	code, b := transfer("40")
	gts.Require().Equal(http.StatusOK, code, string(b))
	var res struct {
		From model.Account `json:"from"`
		To   model.Account `json:"to"`
	}
	gts.Require().NoError(json.Unmarshal(b, &res))
	gts.requireBalance(60, res.From)
	gts.requireBalance(40, res.To)

	code, b = transfer("61")
	gts.Equal(http.StatusUnprocessableEntity, code, string(b))
	code, b = transfer("1000.01")
	gts.Equal(http.StatusUnprocessableEntity, code, string(b))

	gts.requireBalance(60, gts.get(alice.ID))
	gts.requireBalance(40, gts.get(bob.ID))
}

func (gts *GinTestSuite) TestPoolStats() {
	gts.open("dave", "1")
	code, b := gts.do(http.MethodGet, "/pool/stats", nil)
	gts.Require().Equal(http.StatusOK, code, string(b))
	var st model.PoolStats
	gts.Require().NoError(json.Unmarshal(b, &st))
	gts.Equal("sqlite", st.Dialect)
	gts.Equal(4, st.MaxSize)
	gts.False(st.Closed)
	gts.Zero(st.InUse)
	gts.GreaterOrEqual(st.Acquired, int64(2))
	gts.Equal(st.Acquired, st.Released)
}
