// Command financectl runs maintenance tasks against the trading database.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/config"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&migrateCmd{}, "database")
	subcommands.Register(&seedCmd{}, "database")
	subcommands.Register(&snapshotCmd{}, "valuation")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// env is what every subcommand needs: config, a logger and an open repo.
type env struct {
	cfg  *config.Config
	log  *logrus.Logger
	db   *sqlx.DB
	repo *database.Repo
}

func openEnv() (*env, error) {
	log := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log.SetLevel(cfg.LogLevel)
	db, err := database.Open(cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db, repo: database.New(db, log)}, nil
}

func (e *env) Close() { e.db.Close() }

func (e *env) quotes() quote.Provider {
	if e.cfg.QuoteProvider == config.QuoteIEX {
		return quote.NewIEXClient(e.cfg.QuoteBaseURL, e.cfg.APIKey, e.cfg.QuoteTimeout, e.log)
	}
	return quote.NewSimulatedMarket(e.repo, e.log)
}
