// Package servicetest provides in-memory doubles of the service
// collaborators for tests.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/shopspring/decimal"
)

// MemStore mirrors database.Repo in memory. One mutex stands in for the
// per-user row lock, so ApplyOrder is serialised like in Postgres.
type MemStore struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	ledger     []models.Transaction
	valuations map[int64]map[string]decimal.Decimal
	nextUser   int64
	nextTx     int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:      map[int64]*models.User{},
		valuations: map[int64]map[string]decimal.Decimal{},
	}
}

func (m *MemStore) CreateUser(ctx context.Context, username, hash string, cash decimal.Decimal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return 0, database.ErrDuplicateUsername
		}
	}
	m.nextUser++
	m.users[m.nextUser] = &models.User{ID: m.nextUser, Username: username, Hash: hash, Cash: cash, CreatedAt: time.Now()}
	return m.nextUser, nil
}

func (m *MemStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return *u, nil
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (m *MemStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemStore) holding(userID int64, symbol string) int64 {
	var n int64
	for _, t := range m.ledger {
		if t.UserID == userID && t.Symbol == symbol {
			n += t.Shares
		}
	}
	return n
}

func (m *MemStore) Holdings(ctx context.Context, userID int64) ([]database.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	net := map[string]int64{}
	for _, t := range m.ledger {
		if t.UserID == userID {
			net[t.Symbol] += t.Shares
		}
	}
	res := []database.Holding{}
	for s, n := range net {
		if n != 0 {
			res = append(res, database.Holding{Symbol: s, Shares: n})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	return res, nil
}

func (m *MemStore) HoldingOf(ctx context.Context, userID int64, symbol string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holding(userID, symbol), nil
}

func (m *MemStore) History(ctx context.Context, userID int64, newestFirst bool) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []models.Transaction{}
	for _, t := range m.ledger {
		if t.UserID == userID {
			res = append(res, t)
		}
	}
	if newestFirst {
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return res, nil
}

func (m *MemStore) ApplyOrder(ctx context.Context, userID int64, symbol string, plan trading.Planner) (models.Transaction, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.Transaction{}, decimal.Zero, database.ErrNotFound
	}
	order, err := plan(u.Cash, m.holding(userID, symbol))
	if err != nil {
		return models.Transaction{}, decimal.Zero, err
	}
	m.nextTx++
	t := models.Transaction{
		ID:        m.nextTx,
		UserID:    userID,
		Symbol:    order.Symbol,
		Shares:    order.Shares,
		Price:     order.Price,
		CreatedAt: time.Now(),
	}
	m.ledger = append(m.ledger, t)
	u.Cash = order.NewCash
	return t, order.NewCash, nil
}

func (m *MemStore) TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return decimal.Zero, database.ErrNotFound
	}
	next, err := trading.PlanTopUp(u.Cash, amount)
	if err != nil {
		return decimal.Zero, err
	}
	u.Cash = next
	return u.Cash, nil
}

func (m *MemStore) UpsertDailyValuation(ctx context.Context, userID int64, day time.Time, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valuations[userID] == nil {
		m.valuations[userID] = map[string]decimal.Decimal{}
	}
	m.valuations[userID][day.Format("2006-01-02")] = total
	return nil
}

func (m *MemStore) GetDailyValuations(ctx context.Context, userID int64) ([]database.DailyValuation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []database.DailyValuation{}
	for d, total := range m.valuations[userID] {
		res = append(res, database.DailyValuation{Date: d, Total: total})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res, nil
}

// Ledger returns a copy of every appended transaction.
func (m *MemStore) Ledger() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Transaction(nil), m.ledger...)
}
