package accountsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/shopspring/decimal"
)

type rawIDReq struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type rawListReq struct {
	Owner string `form:"owner" binding:"omitempty,max=255"`
	Like  string `form:"owner_like" binding:"omitempty,max=255"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

type listReq struct {
	Lookups map[string]any
	Limit   int
}

type rawOpenReq struct {
	Owner   string `form:"owner" binding:"required,max=255"`
	Balance string `form:"balance" binding:"omitempty,numeric"`
}

type openReq struct {
	Owner   string
	Balance decimal.Decimal
}

type rawDepositReq struct {
	Amount string `form:"amount" binding:"required,numeric"`
}

type depositReq struct {
	ID     uint
	Amount decimal.Decimal
}

type rawTransferReq struct {
	From   uint   `form:"from" binding:"required,min=1"`
	To     uint   `form:"to" binding:"required,min=1,nefield=From"`
	Amount string `form:"amount" binding:"required,numeric"`
}

func (rs *resource) DserID(c *gin.Context) (uint, bool) {
	req := &rawIDReq{}
	if err := c.ShouldBindUri(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"id": []string{"Path param id must be a positive integer."},
		})
		return 0, false
	}
	return req.ID, true
}

func (rs *resource) DserListReq(c *gin.Context) *listReq {
	req := &rawListReq{}
	if ok := serdser.Bind(c, req, nil); !ok {
		return nil
	}
	val := &listReq{Lookups: map[string]any{}, Limit: req.Limit}
	if req.Owner != "" {
		val.Lookups["owner"] = req.Owner
	}
	if req.Like != "" {
		val.Lookups["owner__like"] = req.Like
	}
	if val.Limit == 0 {
		val.Limit = 100
	}
	return val
}

func (rs *resource) DserOpenReq(c *gin.Context) *openReq {
	req := &rawOpenReq{}
	if ok := serdser.Bind(c, req, nil); !ok {
		return nil
	}
	val := &openReq{Owner: req.Owner}
	if req.Balance == "" {
		return val
	}
	var errs map[string][]string
	balance, err := decimal.NewFromString(req.Balance)
	if serdser.Assert(&errs, err == nil, "balance", "The balance is not a decimal.") {
		val.Balance = balance
		return val
	}
	c.JSON(http.StatusBadRequest, errs)
	return nil
}

func (rs *resource) DserDepositReq(c *gin.Context) *depositReq {
	id, ok := rs.DserID(c)
	if !ok {
		return nil
	}
	req := &rawDepositReq{}
	if ok := serdser.Bind(c, req, nil); !ok {
		return nil
	}
	var errs map[string][]string
	amount, err := decimal.NewFromString(req.Amount)
	if serdser.Assert(&errs, err == nil, "amount", "The amount is not a decimal.") {
		return &depositReq{ID: id, Amount: amount}
	}
	c.JSON(http.StatusBadRequest, errs)
	return nil
}

func (rs *resource) DserTransferReq(c *gin.Context) *model.Transfer {
	req := &rawTransferReq{}
	if ok := serdser.Bind(c, req, nil); !ok {
		return nil
	}
	var errs map[string][]string
	amount, err := decimal.NewFromString(req.Amount)
	if serdser.Assert(&errs, err == nil, "amount", "The amount is not a decimal.") {
		return &model.Transfer{From: req.From, To: req.To, Amount: amount}
	}
	c.JSON(http.StatusBadRequest, errs)
	return nil
}
