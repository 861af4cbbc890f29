// Package service runs trading and account operations on top of the pure
// trading rules, a Store and a quote Provider.
package service

import (
	"context"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/shopspring/decimal"
)

// Store is the persistence the services need. *database.Repo implements it.
type Store interface {
	CreateUser(ctx context.Context, username, hash string, cash decimal.Decimal) (int64, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	Holdings(ctx context.Context, userID int64) ([]database.Holding, error)
	HoldingOf(ctx context.Context, userID int64, symbol string) (int64, error)
	History(ctx context.Context, userID int64, newestFirst bool) ([]models.Transaction, error)
	ApplyOrder(ctx context.Context, userID int64, symbol string, plan trading.Planner) (models.Transaction, decimal.Decimal, error)
	TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	UpsertDailyValuation(ctx context.Context, userID int64, day time.Time, total decimal.Decimal) error
	GetDailyValuations(ctx context.Context, userID int64) ([]database.DailyValuation, error)
}

var _ Store = (*database.Repo)(nil)
