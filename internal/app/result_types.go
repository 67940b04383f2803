package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalanceResult is the as-of balance of one account, signed by the
// account's type.
type AccountBalanceResult struct {
	AccountID int64           `json:"account_id"`
	AsOf      time.Time       `json:"as_of"`
	Balance   decimal.Decimal `json:"balance"`
}
