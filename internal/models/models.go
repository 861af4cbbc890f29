package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64           `db:"id" json:"id"`
	Username  string          `db:"username" json:"username"`
	Hash      string          `db:"hash" json:"-"`
	Cash      decimal.Decimal `db:"cash" json:"cash"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Transaction is one ledger row. Shares is signed: positive for a buy,
// negative for a sell.
type Transaction struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Symbol    string          `db:"symbol" json:"symbol"`
	Shares    int64           `db:"shares" json:"shares"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type Stock struct {
	Symbol string `db:"symbol" json:"symbol"`
	Name   string `db:"name" json:"name"`
}
