package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/service"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/valuation"
)

type snapshotCmd struct {
	date string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record today's portfolio value of every user" }
func (*snapshotCmd) Usage() string {
	return `financectl snapshot [-date YYYY-MM-DD]

  Values every user's portfolio at current prices and stores it as the
  daily valuation. -date files the result under another day, which is
  useful to fill a missed scheduled run.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Day to record the valuation under (defaults to today, UTC).")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var day time.Time
	if c.date != "" {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -date: %v\n", err)
			return subcommands.ExitUsageError
		}
		day = d
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	trading := service.NewTrading(e.repo, e.quotes(), e.log, e.cfg.NewestFirst)
	snap := valuation.New(e.repo, trading, e.log)
	if !day.IsZero() {
		snap.Now = func() time.Time { return day }
	}
	n, err := snap.RunOnce(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("recorded %d valuations\n", n)
	return subcommands.ExitSuccess
}
