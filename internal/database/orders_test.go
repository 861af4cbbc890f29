package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func q(sym, price string) models.Quote {
	return models.Quote{Symbol: sym, Price: decimal.RequireFromString(price)}
}

func buy(quote models.Quote, n int64) trading.Planner {
	return func(cash decimal.Decimal, _ int64) (trading.Order, error) {
		return trading.PlanBuy(cash, quote, n)
	}
}

func sell(quote models.Quote, n int64) trading.Planner {
	return func(cash decimal.Decimal, holding int64) (trading.Order, error) {
		return trading.PlanSell(cash, holding, quote, n)
	}
}

func TestApplyOrder_BuyThenSell(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "10000.00")

	tx, cash, err := r.ApplyOrder(ctx, id, "AAPL", buy(q("AAPL", "150.00"), 10))
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(8500)), "got %s", cash)
	assert.Equal(t, int64(10), tx.Shares)
	assert.True(t, tx.Price.Equal(decimal.NewFromInt(150)))

	_, cash, err = r.ApplyOrder(ctx, id, "AAPL", sell(q("AAPL", "160.00"), 5))
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(9300)), "got %s", cash)

	held, err := r.HoldingOf(ctx, id, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(5), held)

	hist, err := r.History(ctx, id, false)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, int64(10), hist[0].Shares)
	assert.Equal(t, int64(-5), hist[1].Shares)

	u, err := r.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Cash.Equal(decimal.NewFromInt(9300)))
}

func TestApplyOrder_ExhaustedHoldingDropsOut(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "1000")

	_, _, err := r.ApplyOrder(ctx, id, "NFLX", buy(q("NFLX", "10"), 3))
	require.NoError(t, err)
	_, _, err = r.ApplyOrder(ctx, id, "MSFT", buy(q("MSFT", "10"), 1))
	require.NoError(t, err)
	_, _, err = r.ApplyOrder(ctx, id, "NFLX", sell(q("NFLX", "12"), 3))
	require.NoError(t, err)

	hs, err := r.Holdings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []Holding{{Symbol: "MSFT", Shares: 1}}, hs)
}

func TestApplyOrder_RejectionWritesNothing(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "100")

	_, _, err := r.ApplyOrder(ctx, id, "AAPL", buy(q("AAPL", "150"), 1))
	assert.ErrorIs(t, err, trading.ErrInsufficientFunds)

	boom := errors.New("boom")
	_, _, err = r.ApplyOrder(ctx, id, "AAPL", func(decimal.Decimal, int64) (trading.Order, error) {
		return trading.Order{}, boom
	})
	assert.ErrorIs(t, err, boom)

	hist, err := r.History(ctx, id, false)
	require.NoError(t, err)
	assert.Empty(t, hist)
	u, err := r.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Cash.Equal(decimal.NewFromInt(100)))
}

func TestApplyOrder_ConcurrentSellsSerialise(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "1000")

	_, _, err := r.ApplyOrder(ctx, id, "AAPL", buy(q("AAPL", "10"), 5))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := r.ApplyOrder(ctx, id, "AAPL", sell(q("AAPL", "10"), 5)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	held, err := r.HoldingOf(ctx, id, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(0), held)
	u, err := r.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Cash.Equal(decimal.NewFromInt(1000)), "got %s", u.Cash)
}

func TestApplyOrder_SubCentPriceMatchesStoredCash(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "10000")

	tx, cash, err := r.ApplyOrder(ctx, id, "PENY", buy(q("PENY", "0.12345"), 1))
	require.NoError(t, err)
	assert.True(t, tx.Price.Equal(decimal.RequireFromString("0.1235")), "got %s", tx.Price)

	u, err := r.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, cash.Equal(u.Cash), "returned %s, stored %s", cash, u.Cash)
	assert.True(t, u.Cash.Equal(decimal.NewFromInt(10000).Sub(tx.Price)))
}
