package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/apology"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/portfolio"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrQuoteUnavailable     = apology.Unavailable("quote service unavailable, try again later")
	ErrPortfolioUnavailable = apology.Unavailable("portfolio temporarily unavailable")
)

// Execution is the outcome of an admitted buy or sell.
type Execution struct {
	Cash        decimal.Decimal    `json:"cash"`
	Transaction models.Transaction `json:"transaction"`
}

type Trading struct {
	store       Store
	quotes      quote.Provider
	log         *logrus.Logger
	newestFirst bool
}

func NewTrading(store Store, quotes quote.Provider, log *logrus.Logger, newestFirst bool) *Trading {
	return &Trading{store: store, quotes: quotes, log: log, newestFirst: newestFirst}
}

func (t *Trading) lookup(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := t.quotes.Lookup(ctx, symbol)
	switch {
	case err == nil:
		// prices and balances are stored with trading.Scale decimals
		q.Price = q.Price.Round(trading.Scale)
		return q, nil
	case errors.Is(err, quote.ErrUnknownSymbol):
		return models.Quote{}, trading.ErrUnknownSymbol
	case errors.Is(err, quote.ErrUnavailable):
		t.log.Warnf("quote %s: %v", symbol, err)
		return models.Quote{}, fmt.Errorf("%w: %w", ErrQuoteUnavailable, err)
	default:
		return models.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
}

func (t *Trading) Quote(ctx context.Context, rawSymbol string) (models.Quote, error) {
	symbol, err := trading.NormalizeSymbol(rawSymbol)
	if err != nil {
		return models.Quote{}, err
	}
	return t.lookup(ctx, symbol)
}

// Buy validates symbol, quote and share count in that order, then debits the
// cost and appends the ledger row in one database transaction.
func (t *Trading) Buy(ctx context.Context, userID int64, rawSymbol, rawShares string) (Execution, error) {
	symbol, err := trading.NormalizeSymbol(rawSymbol)
	if err != nil {
		return Execution{}, err
	}
	q, err := t.lookup(ctx, symbol)
	if err != nil {
		return Execution{}, err
	}
	shares, err := trading.ParseShares(rawShares)
	if err != nil {
		return Execution{}, err
	}
	q.Symbol = symbol

	tx, cash, err := t.store.ApplyOrder(ctx, userID, symbol, func(cash decimal.Decimal, _ int64) (trading.Order, error) {
		return trading.PlanBuy(cash, q, shares)
	})
	if err != nil {
		return Execution{}, err
	}
	t.log.Infof("user %d bought %d %s at %s", userID, shares, symbol, q.Price)
	return Execution{Cash: cash, Transaction: tx}, nil
}

// Sell checks the holding before asking for a quote, and again under the
// balance lock.
func (t *Trading) Sell(ctx context.Context, userID int64, rawSymbol, rawShares string) (Execution, error) {
	symbol, err := trading.NormalizeSymbol(rawSymbol)
	if err != nil {
		return Execution{}, err
	}
	shares, err := trading.ParseShares(rawShares)
	if err != nil {
		return Execution{}, err
	}
	holding, err := t.store.HoldingOf(ctx, userID, symbol)
	if err != nil {
		return Execution{}, fmt.Errorf("read holding: %w", err)
	}
	if err := trading.CheckHolding(holding, shares); err != nil {
		return Execution{}, err
	}
	q, err := t.lookup(ctx, symbol)
	if err != nil {
		return Execution{}, err
	}
	q.Symbol = symbol

	tx, cash, err := t.store.ApplyOrder(ctx, userID, symbol, func(cash decimal.Decimal, holding int64) (trading.Order, error) {
		return trading.PlanSell(cash, holding, q, shares)
	})
	if err != nil {
		return Execution{}, err
	}
	t.log.Infof("user %d sold %d %s at %s", userID, shares, symbol, q.Price)
	return Execution{Cash: cash, Transaction: tx}, nil
}

func (t *Trading) TopUp(ctx context.Context, userID int64, rawAmount string) (decimal.Decimal, error) {
	amount, err := trading.ParseAmount(rawAmount)
	if err != nil {
		return decimal.Zero, err
	}
	cash, err := t.store.TopUp(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("top up: %w", err)
	}
	return cash, nil
}

func (t *Trading) Portfolio(ctx context.Context, userID int64) (portfolio.Portfolio, error) {
	u, err := t.store.GetUser(ctx, userID)
	if err != nil {
		return portfolio.Portfolio{}, fmt.Errorf("get user: %w", err)
	}
	holdings, err := t.store.Holdings(ctx, userID)
	if err != nil {
		return portfolio.Portfolio{}, fmt.Errorf("holdings: %w", err)
	}
	p, err := portfolio.Build(ctx, holdings, u.Cash, t.quotes)
	if err != nil {
		if errors.Is(err, portfolio.ErrIncomplete) {
			t.log.Warnf("portfolio of user %d: %v", userID, err)
			return portfolio.Portfolio{}, fmt.Errorf("%w: %w", ErrPortfolioUnavailable, err)
		}
		return portfolio.Portfolio{}, err
	}
	return p, nil
}

func (t *Trading) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return t.store.History(ctx, userID, t.newestFirst)
}
