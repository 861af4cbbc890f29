package quote

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MarketStore is the part of the repository backing the simulated market.
type MarketStore interface {
	GetStock(ctx context.Context, symbol string) (models.Stock, error)
	GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	UpsertPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
	GetAllSymbols(ctx context.Context) ([]string, error)
}

// SimulatedMarket serves quotes for the instruments listed in the stocks
// table. Prices random-walk: each tick moves a price by at most ±2%, and a
// price older than StaleAfter is stepped on read.
type SimulatedMarket struct {
	store      MarketStore
	log        *logrus.Logger
	StaleAfter time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedMarket(store MarketStore, log *logrus.Logger) *SimulatedMarket {
	return &SimulatedMarket{
		store:      store,
		log:        log,
		StaleAfter: 15 * time.Minute,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *SimulatedMarket) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	stock, err := m.store.GetStock(ctx, symbol)
	if errors.Is(err, database.ErrNotFound) {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	price, ts, err := m.store.GetLatestPrice(ctx, stock.Symbol)
	switch {
	case errors.Is(err, database.ErrNotFound):
		price, err = m.tick(ctx, stock.Symbol, decimal.Zero)
	case err != nil:
		return models.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case time.Since(ts) >= m.StaleAfter:
		price, err = m.tick(ctx, stock.Symbol, price)
	}
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return models.Quote{Symbol: stock.Symbol, Name: stock.Name, Price: price}, nil
}

// Start steps every listed symbol once per interval until ctx is done.
func (m *SimulatedMarket) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.log.Info("price updater stopping")
				return
			case <-ticker.C:
				m.TickAll(ctx)
			}
		}
	}()
}

func (m *SimulatedMarket) TickAll(ctx context.Context) {
	symbols, err := m.store.GetAllSymbols(ctx)
	if err != nil {
		m.log.Warnf("failed to fetch symbols: %v", err)
		return
	}
	for _, s := range symbols {
		last, _, err := m.store.GetLatestPrice(ctx, s)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			m.log.Warnf("latest price for %s: %v", s, err)
			continue
		}
		if _, err := m.tick(ctx, s, last); err != nil {
			m.log.Warnf("tick %s: %v", s, err)
		}
	}
}

func (m *SimulatedMarket) tick(ctx context.Context, symbol string, last decimal.Decimal) (decimal.Decimal, error) {
	next := m.step(last)
	if err := m.store.UpsertPrice(ctx, symbol, next, time.Now().UTC()); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// step returns the next price. A zero last price seeds a value in [50, 5000).
func (m *SimulatedMarket) step(last decimal.Decimal) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !last.IsPositive() {
		return decimal.NewFromFloat(50 + m.rnd.Float64()*(5000-50)).Round(2)
	}
	move := decimal.NewFromFloat((m.rnd.Float64()*2 - 1) * 0.02)
	next := last.Add(last.Mul(move)).Round(2)
	if next.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return next
}

// Listings is the instrument universe seeded for the simulated market.
var Listings = []models.Stock{
	{Symbol: "AAPL", Name: "Apple Inc"},
	{Symbol: "AMZN", Name: "Amazon.com Inc"},
	{Symbol: "GOOGL", Name: "Alphabet Inc"},
	{Symbol: "MSFT", Name: "Microsoft Corporation"},
	{Symbol: "NFLX", Name: "Netflix Inc"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	{Symbol: "TSLA", Name: "Tesla Inc"},
}
