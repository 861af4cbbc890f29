// Package portfolio values a user's holdings at live prices.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/shopspring/decimal"
)

// ErrIncomplete reports a held symbol the quote provider could not price.
// Stored state is untouched; the view is just not available right now.
var ErrIncomplete = errors.New("portfolio incomplete")

type Row struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

type Portfolio struct {
	Rows  []Row           `json:"rows"`
	Cash  decimal.Decimal `json:"cash"`
	Total decimal.Decimal `json:"total"`
}

// Build prices every nonzero holding and totals it with cash. Rows are
// ordered by symbol.
func Build(ctx context.Context, holdings []database.Holding, cash decimal.Decimal, quotes quote.Provider) (Portfolio, error) {
	net := map[string]int64{}
	for _, h := range holdings {
		net[h.Symbol] += h.Shares
	}
	symbols := make([]string, 0, len(net))
	for s, n := range net {
		if n != 0 {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	p := Portfolio{Rows: make([]Row, 0, len(symbols)), Cash: cash, Total: cash}
	for _, s := range symbols {
		q, err := quotes.Lookup(ctx, s)
		if err != nil {
			return Portfolio{}, fmt.Errorf("%w: %s: %w", ErrIncomplete, s, err)
		}
		shares := net[s]
		value := q.Price.Mul(decimal.NewFromInt(shares))
		p.Rows = append(p.Rows, Row{Symbol: s, Name: q.Name, Shares: shares, Price: q.Price, Value: value})
		p.Total = p.Total.Add(value)
	}
	return p, nil
}
