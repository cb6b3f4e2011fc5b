package repo

import (
	"context"

	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/shopspring/decimal"
)

// AccountsQueryer extends the generic account CRUD operations with
// an atomic balance adjustment.
type AccountsQueryer interface {
	ModelQueryer[model.Account]

	// AddBalance adds delta (which may be negative) to the balance of
	// the id account in one UPDATE statement and returns the updated
	// account.
	AddBalance(ctx context.Context, id uint, delta decimal.Decimal) (*model.Account, error)
}

type Accounts interface {
	On(r Route) AccountsQueryer
	Conn(c Conn) AccountsQueryer
	Tx(tx Tx) AccountsQueryer
	Pool(p Pool) AccountsQueryer
}
