package servicetest

import (
	"context"
	"strings"
	"sync"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/shopspring/decimal"
)

// FakeQuotes answers from a fixed price table. Unknown symbols yield
// quote.ErrUnknownSymbol; Down makes every lookup fail as unavailable.
type FakeQuotes struct {
	mu      sync.Mutex
	prices  map[string]models.Quote
	down    bool
	lookups int
}

func NewFakeQuotes() *FakeQuotes {
	return &FakeQuotes{prices: map[string]models.Quote{}}
}

func (f *FakeQuotes) Set(symbol, name, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbol = strings.ToUpper(symbol)
	f.prices[symbol] = models.Quote{Symbol: symbol, Name: name, Price: decimal.RequireFromString(price)}
}

func (f *FakeQuotes) Remove(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.prices, strings.ToUpper(symbol))
}

func (f *FakeQuotes) Down(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *FakeQuotes) Lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *FakeQuotes) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.down {
		return models.Quote{}, quote.ErrUnavailable
	}
	q, ok := f.prices[strings.ToUpper(symbol)]
	if !ok {
		return models.Quote{}, quote.ErrUnknownSymbol
	}
	return q, nil
}
