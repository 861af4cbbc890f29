// Package quote resolves ticker symbols to live prices.
package quote

import (
	"context"
	"errors"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrUnavailable   = errors.New("quote service unavailable")
)

// Provider looks up the current quote of a symbol. Implementations return
// ErrUnknownSymbol when the symbol does not resolve and ErrUnavailable when
// the upstream cannot be reached in time.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}
