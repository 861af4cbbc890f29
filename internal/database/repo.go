package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/trading"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) CreateUser(ctx context.Context, username, hash string, cash decimal.Decimal) (int64, error) {
	var id int64
	q := `INSERT INTO users (username, hash, cash) VALUES ($1, $2, $3::numeric) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, q, username, hash, cash.String()).Scan(&id); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	return id, nil
}

func (r *Repo) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, hash, cash, created_at FROM users WHERE id = $1`, id)
	return u, notFound(err)
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, hash, cash, created_at FROM users WHERE username = $1`, username)
	return u, notFound(err)
}

func (r *Repo) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// Holdings sums the ledger per symbol. Symbols whose net is zero are left
// out.
func (r *Repo) Holdings(ctx context.Context, userID int64) ([]Holding, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT symbol, SUM(shares) AS shares
		FROM transactions
		WHERE user_id = $1
		GROUP BY symbol
		HAVING SUM(shares) <> 0
		ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Holding{}
	for rows.Next() {
		var h Holding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r *Repo) HoldingOf(ctx context.Context, userID int64, symbol string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COALESCE(SUM(shares), 0) FROM transactions WHERE user_id = $1 AND symbol = $2`, userID, symbol)
	return n, err
}

func (r *Repo) History(ctx context.Context, userID int64, newestFirst bool) ([]models.Transaction, error) {
	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	res := []models.Transaction{}
	q := `SELECT id, user_id, symbol, shares, price, created_at FROM transactions WHERE user_id = $1 ORDER BY created_at ` + order + `, id ` + order
	if err := r.db.SelectContext(ctx, &res, q, userID); err != nil {
		return nil, err
	}
	return res, nil
}

// ApplyOrder locks the user's row, hands the locked cash and the current
// holding of symbol to plan, then appends the planned ledger row and stores
// the new cash in the same transaction. Concurrent orders of one user are
// serialised by the row lock.
func (r *Repo) ApplyOrder(ctx context.Context, userID int64, symbol string, plan trading.Planner) (models.Transaction, decimal.Decimal, error) {
	var t models.Transaction
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return t, decimal.Zero, err
	}
	defer tx.Rollback()

	var cash decimal.Decimal
	if err := tx.GetContext(ctx, &cash, `SELECT cash FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return t, decimal.Zero, notFound(err)
	}
	var holding int64
	if err := tx.GetContext(ctx, &holding, `SELECT COALESCE(SUM(shares), 0) FROM transactions WHERE user_id = $1 AND symbol = $2`, userID, symbol); err != nil {
		return t, decimal.Zero, err
	}

	order, err := plan(cash, holding)
	if err != nil {
		return t, decimal.Zero, err
	}

	ins := `INSERT INTO transactions (user_id, symbol, shares, price) VALUES ($1, $2, $3, $4::numeric) RETURNING id, user_id, symbol, shares, price, created_at`
	if err := tx.QueryRowxContext(ctx, ins, userID, order.Symbol, order.Shares, order.Price.String()).StructScan(&t); err != nil {
		return t, decimal.Zero, fmt.Errorf("append ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET cash = $1::numeric WHERE id = $2`, order.NewCash.String(), userID); err != nil {
		return t, decimal.Zero, fmt.Errorf("update cash: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return t, decimal.Zero, err
	}
	return t, order.NewCash, nil
}

// TopUp credits amount under the same row lock as ApplyOrder, refusing a
// balance above trading.MaxCash.
func (r *Repo) TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	var cash decimal.Decimal
	if err := tx.GetContext(ctx, &cash, `SELECT cash FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return decimal.Zero, notFound(err)
	}
	next, err := trading.PlanTopUp(cash, amount)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET cash = $1::numeric WHERE id = $2`, next.String(), userID); err != nil {
		return decimal.Zero, fmt.Errorf("update cash: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

func (r *Repo) UpsertDailyValuation(ctx context.Context, userID int64, day time.Time, total decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_valuations (user_id, date, total) VALUES ($1, $2::date, $3::numeric)
		ON CONFLICT (user_id, date) DO UPDATE SET total = EXCLUDED.total`,
		userID, day.Format("2006-01-02"), total.StringFixed(4))
	return err
}

func (r *Repo) GetDailyValuations(ctx context.Context, userID int64) ([]DailyValuation, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT to_char(date, 'YYYY-MM-DD') AS date, total FROM daily_valuations WHERE user_id = $1 ORDER BY date ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []DailyValuation{}
	for rows.Next() {
		var d DailyValuation
		if err := rows.StructScan(&d); err != nil {
			r.log.Warnf("scan daily valuation failed: %v", err)
			continue
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *Repo) EnsureStockExists(ctx context.Context, symbol, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO stocks (symbol, name) VALUES ($1, $2) ON CONFLICT (symbol) DO NOTHING`, symbol, name)
	return err
}

func (r *Repo) GetStock(ctx context.Context, symbol string) (models.Stock, error) {
	var s models.Stock
	err := r.db.GetContext(ctx, &s, `SELECT symbol, name FROM stocks WHERE symbol = $1`, symbol)
	return s, notFound(err)
}

func (r *Repo) GetAllSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT symbol FROM stocks ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan symbol failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *Repo) GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	var price decimal.Decimal
	var ts time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT price, timestamp FROM price_history WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`, symbol).Scan(&price, &ts); err != nil {
		return decimal.Zero, time.Time{}, notFound(err)
	}
	return price, ts, nil
}

func (r *Repo) UpsertPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO price_history (symbol, price, timestamp) VALUES ($1, $2::numeric, $3)`, symbol, price.StringFixed(4), ts)
	return err
}
