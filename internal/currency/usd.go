// Package currency formats amounts for display.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD renders d as dollars, e.g. "$8,500.00". The value is rounded to cents.
func USD(d decimal.Decimal) string {
	// money.New is the only way to get a never nil currency
	cur := *money.New(0, money.USD).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
