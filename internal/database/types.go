package database

import "github.com/shopspring/decimal"

type DailyValuation struct {
	Total decimal.Decimal `db:"total" json:"total"`
	Date  string          `db:"date" json:"date"`
}

// Holding is the net share count of one symbol, summed over the ledger.
type Holding struct {
	Symbol string `db:"symbol" json:"symbol"`
	Shares int64  `db:"shares" json:"shares"`
}
