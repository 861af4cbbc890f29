// Package valuation records each user's total portfolio value once a day.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/portfolio"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultSchedule = "0 5 0 * * *"

type Store interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	UpsertDailyValuation(ctx context.Context, userID int64, day time.Time, total decimal.Decimal) error
	GetDailyValuations(ctx context.Context, userID int64) ([]database.DailyValuation, error)
}

// Valuer prices a user's portfolio; *service.Trading implements it.
type Valuer interface {
	Portfolio(ctx context.Context, userID int64) (portfolio.Portfolio, error)
}

type Snapshotter struct {
	store  Store
	valuer Valuer
	log    *logrus.Logger
	cron   *cron.Cron

	// Now dates the snapshots. Defaults to time.Now in UTC.
	Now func() time.Time
	// Timeout bounds one scheduled pass.
	Timeout time.Duration
}

func New(store Store, valuer Valuer, log *logrus.Logger) *Snapshotter {
	return &Snapshotter{
		store:   store,
		valuer:  valuer,
		log:     log,
		cron:    cron.New(cron.WithSeconds()),
		Now:     func() time.Time { return time.Now().UTC() },
		Timeout: 10 * time.Minute,
	}
}

// RunOnce values every user and upserts today's row for each. Users whose
// portfolio cannot be valued are skipped; the count of recorded users is
// returned.
func (s *Snapshotter) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	day := s.Now()
	recorded := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return recorded, err
		}
		p, err := s.valuer.Portfolio(ctx, id)
		if err != nil {
			if errors.Is(err, portfolio.ErrIncomplete) {
				s.log.Warnf("snapshot: skip user %d: %v", id, err)
				continue
			}
			s.log.Errorf("snapshot: value user %d: %v", id, err)
			continue
		}
		if err := s.store.UpsertDailyValuation(ctx, id, day, p.Total); err != nil {
			return recorded, fmt.Errorf("store valuation of user %d: %w", id, err)
		}
		recorded++
	}
	s.log.Infof("snapshot %s: recorded %d of %d users", day.Format("2006-01-02"), recorded, len(ids))
	return recorded, nil
}

// Start schedules RunOnce on a six-field cron spec (seconds first).
func (s *Snapshotter) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Errorf("scheduled snapshot failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("snapshot schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Infof("valuation snapshots scheduled at %q", spec)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Snapshotter) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Snapshotter) List(ctx context.Context, userID int64) ([]database.DailyValuation, error) {
	return s.store.GetDailyValuations(ctx, userID)
}
