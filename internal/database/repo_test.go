package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Repo, *sqlx.DB) {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := New(db, logrus.New())
	require.NoError(t, r.Migrate(context.Background()))
	return r, db
}

// newUser registers a throwaway user and removes it with its rows afterwards.
func newUser(t *testing.T, r *Repo, db *sqlx.DB, cash string) int64 {
	t.Helper()
	name := fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
	id, err := r.CreateUser(context.Background(), name, "hash", decimal.RequireFromString(cash))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM daily_valuations WHERE user_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM transactions WHERE user_id = $1`, id)
		_, _ = db.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestCreateUser_Duplicate(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()

	id := newUser(t, r, db, "10000")
	u, err := r.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Cash.Equal(decimal.NewFromInt(10000)))

	_, err = r.CreateUser(ctx, u.Username, "other", decimal.Zero)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	byName, err := r.GetUserByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	_, err = r.GetUserByUsername(ctx, u.Username+"-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopUp(t *testing.T) {
	r, db := setupRepo(t)
	id := newUser(t, r, db, "100")

	cash, err := r.TopUp(context.Background(), id, decimal.RequireFromString("50.25"))
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.RequireFromString("150.25")), "got %s", cash)

	_, err = r.TopUp(context.Background(), -1, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.TopUp(context.Background(), id, trading.MaxCash)
	assert.ErrorIs(t, err, trading.ErrBalanceLimit)
	u, err := r.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, u.Cash.Equal(decimal.RequireFromString("150.25")))
}

func TestDailyValuations(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	id := newUser(t, r, db, "10000")

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	require.NoError(t, r.UpsertDailyValuation(ctx, id, day2, decimal.NewFromInt(10500)))
	require.NoError(t, r.UpsertDailyValuation(ctx, id, day1, decimal.NewFromInt(9000)))
	require.NoError(t, r.UpsertDailyValuation(ctx, id, day1, decimal.NewFromInt(10000)))

	vals, err := r.GetDailyValuations(ctx, id)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "2024-03-01", vals[0].Date)
	assert.True(t, vals[0].Total.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "2024-03-02", vals[1].Date)
}

func TestMarketPrices(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()
	sym := "TST" + fmt.Sprint(time.Now().UnixNano()%100000)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM price_history WHERE symbol = $1`, sym)
		_, _ = db.Exec(`DELETE FROM stocks WHERE symbol = $1`, sym)
	})

	require.NoError(t, r.EnsureStockExists(ctx, sym, "Test Corp"))
	require.NoError(t, r.EnsureStockExists(ctx, sym, "Renamed"))
	s, err := r.GetStock(ctx, sym)
	require.NoError(t, err)
	assert.Equal(t, "Test Corp", s.Name)

	_, _, err = r.GetLatestPrice(ctx, sym)
	assert.ErrorIs(t, err, ErrNotFound)

	earlier := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, r.UpsertPrice(ctx, sym, decimal.NewFromInt(100), earlier))
	require.NoError(t, r.UpsertPrice(ctx, sym, decimal.RequireFromString("101.5"), earlier.Add(time.Minute)))
	p, _, err := r.GetLatestPrice(ctx, sym)
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("101.5")))

	syms, err := r.GetAllSymbols(ctx)
	require.NoError(t, err)
	assert.Contains(t, syms, sym)
}
