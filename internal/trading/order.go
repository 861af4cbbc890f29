// Package trading decides whether a buy, sell or top-up is admissible and
// computes the resulting balance. It holds no state and does no I/O; callers
// run it inside the transaction that locks the user's balance.
package trading

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/apology"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNoSymbol          = apology.BadRequest("must provide a symbol")
	ErrUnknownSymbol     = apology.BadRequest("no such symbol")
	ErrNoShares          = apology.BadRequest("must provide shares")
	ErrSharesNotWhole    = apology.BadRequest("shares must be a whole number")
	ErrSharesNotPositive = apology.BadRequest("shares must be > 0")
	ErrInsufficientFunds = apology.Forbidden("not enough funds")
	ErrNoAmount          = apology.BadRequest("must provide an amount")
	ErrAmountNotNumber   = apology.BadRequest("amount must be a number")
	ErrAmountNotPositive = apology.BadRequest("amount must be > 0")
	ErrAmountPrecision   = apology.BadRequest("amount must have at most 4 decimal places")
	ErrAmountTooLarge    = apology.BadRequest("amount is too large")
	ErrSharesTooMany     = apology.BadRequest("shares must be at most %d", MaxShares)
	ErrBalanceLimit      = apology.Forbidden("balance would exceed %s", MaxCash)
)

const (
	// Scale is the number of decimal places kept for prices and cash.
	Scale = 4
	// MaxShares is the largest share count of a single order.
	MaxShares = 1<<31 - 1
)

// MaxCash is the largest balance an account can hold.
var MaxCash = decimal.RequireFromString("99999999999999.9999")

// InsufficientShares rejects a sell larger than the current holding.
func InsufficientShares(holding int64) *apology.Error {
	return apology.Forbidden("you only have %d shares", holding)
}

// Order is an admitted buy or sell, ready to be appended to the ledger.
type Order struct {
	Symbol  string
	Shares  int64 // signed, as stored in the ledger
	Price   decimal.Decimal
	NewCash decimal.Decimal
}

// Planner computes an order from the balance and holding read under lock.
type Planner func(cash decimal.Decimal, holding int64) (Order, error)

func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrNoSymbol
	}
	return s, nil
}

func ParseShares(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrNoShares
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return 0, ErrSharesNotPositive
		}
		return 0, ErrSharesTooMany
	}
	if err != nil {
		return 0, ErrSharesNotWhole
	}
	if n <= 0 {
		return 0, ErrSharesNotPositive
	}
	return n, nil
}

func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrNoAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrAmountNotNumber
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrAmountNotPositive
	}
	if !d.Equal(d.Round(Scale)) {
		return decimal.Zero, ErrAmountPrecision
	}
	if d.GreaterThan(MaxCash) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return d, nil
}

// PlanTopUp adds amount to cash unless the result exceeds MaxCash.
func PlanTopUp(cash, amount decimal.Decimal) (decimal.Decimal, error) {
	next := cash.Add(amount)
	if next.GreaterThan(MaxCash) {
		return decimal.Zero, ErrBalanceLimit
	}
	return next, nil
}

// Cost is price × shares.
func Cost(price decimal.Decimal, shares int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares))
}

// PlanBuy admits a buy when the cash covers the cost; equality is enough.
func PlanBuy(cash decimal.Decimal, q models.Quote, shares int64) (Order, error) {
	if shares <= 0 {
		return Order{}, ErrSharesNotPositive
	}
	if shares > MaxShares {
		return Order{}, ErrSharesTooMany
	}
	q.Price = q.Price.Round(Scale)
	if !q.Price.IsPositive() {
		return Order{}, ErrUnknownSymbol
	}
	cost := Cost(q.Price, shares)
	if cash.LessThan(cost) {
		return Order{}, ErrInsufficientFunds
	}
	return Order{
		Symbol:  strings.ToUpper(q.Symbol),
		Shares:  shares,
		Price:   q.Price,
		NewCash: cash.Sub(cost),
	}, nil
}

func CheckHolding(holding, shares int64) error {
	if shares > holding {
		return InsufficientShares(holding)
	}
	return nil
}

// PlanSell admits a sell of at most the current holding and credits the
// proceeds at the quoted price.
func PlanSell(cash decimal.Decimal, holding int64, q models.Quote, shares int64) (Order, error) {
	if shares <= 0 {
		return Order{}, ErrSharesNotPositive
	}
	if shares > MaxShares {
		return Order{}, ErrSharesTooMany
	}
	if err := CheckHolding(holding, shares); err != nil {
		return Order{}, err
	}
	q.Price = q.Price.Round(Scale)
	if !q.Price.IsPositive() {
		return Order{}, ErrUnknownSymbol
	}
	next, err := PlanTopUp(cash, Cost(q.Price, shares))
	if err != nil {
		return Order{}, err
	}
	return Order{
		Symbol:  strings.ToUpper(q.Symbol),
		Shares:  -shares,
		Price:   q.Price,
		NewCash: next,
	}, nil
}
