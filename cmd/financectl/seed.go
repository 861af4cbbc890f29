package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/service"
)

type seedCmd struct {
	user     string
	password string
	symbol   string
	shares   string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "list the simulated instruments and optionally a demo account" }
func (*seedCmd) Usage() string {
	return `financectl seed [-user <name> -password <pw>] [-symbol AAPL -shares 10]

  Inserts the simulated market's instruments with a first price each.
  With -user, also registers that account (if missing) and, with -shares,
  buys a starting position for it.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Demo account to create.")
	f.StringVar(&c.password, "password", "demo", "Password of the demo account.")
	f.StringVar(&c.symbol, "symbol", "AAPL", "Symbol of the starting position.")
	f.StringVar(&c.shares, "shares", "", "Shares of the starting position; none when empty.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if err := e.repo.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, s := range quote.Listings {
		if err := e.repo.EnsureStockExists(ctx, s.Symbol, s.Name); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding %s: %v\n", s.Symbol, err)
			return subcommands.ExitFailure
		}
	}
	quote.NewSimulatedMarket(e.repo, e.log).TickAll(ctx)
	fmt.Printf("seeded %d instruments\n", len(quote.Listings))

	if c.user == "" {
		return subcommands.ExitSuccess
	}
	accounts := service.NewAccounts(e.repo, e.cfg.StartingCash, e.log)
	id, err := accounts.Register(ctx, c.user, c.password, c.password)
	if errors.Is(err, service.ErrUsernameTaken) {
		u, lookupErr := e.repo.GetUserByUsername(ctx, c.user)
		if lookupErr != nil {
			fmt.Fprintln(os.Stderr, lookupErr)
			return subcommands.ExitFailure
		}
		id, err = u.ID, nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("user %s has id %d\n", c.user, id)

	if c.shares == "" {
		return subcommands.ExitSuccess
	}
	trading := service.NewTrading(e.repo, e.quotes(), e.log, e.cfg.NewestFirst)
	ex, err := trading.Buy(ctx, id, c.symbol, c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("bought %d %s at %s, cash left %s\n", ex.Transaction.Shares, ex.Transaction.Symbol, ex.Transaction.Price, ex.Cash)
	return subcommands.ExitSuccess
}
