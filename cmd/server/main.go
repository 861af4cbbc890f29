package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/config"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/handlers"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/quote"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/service"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/session"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/valuation"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	// Load .env file if it exists, but don't fail if it's missing (e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := database.New(db, logger)
	if err := r.Migrate(ctx); err != nil {
		logger.Fatalf("migrate failed: %v", err)
	}

	var quotes quote.Provider
	switch cfg.QuoteProvider {
	case config.QuoteIEX:
		quotes = quote.NewIEXClient(cfg.QuoteBaseURL, cfg.APIKey, cfg.QuoteTimeout, logger)
	default:
		for _, s := range quote.Listings {
			if err := r.EnsureStockExists(ctx, s.Symbol, s.Name); err != nil {
				logger.Fatalf("seed stock %s: %v", s.Symbol, err)
			}
		}
		market := quote.NewSimulatedMarket(r, logger)
		market.Start(ctx, cfg.PriceUpdateInterval)
		quotes = market
		logger.Infof("using simulated market, prices step every %s", cfg.PriceUpdateInterval)
	}

	var revoker session.Revoker
	if cfg.RedisURL != "" {
		rdb, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatalf("redis connect failed: %v", err)
		}
		defer rdb.Close()
		revoker = session.NewRedisRevoker(rdb)
	}
	if cfg.DevSecret() {
		logger.Warn("SESSION_SECRET not set, using the development secret")
	}
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, revoker, logger)
	sessions.Secure = cfg.Env == "production"

	trading := service.NewTrading(r, quotes, logger, cfg.NewestFirst)
	accounts := service.NewAccounts(r, cfg.StartingCash, logger)

	snapshots := valuation.New(r, trading, logger)
	if err := snapshots.Start(cfg.SnapshotSchedule); err != nil {
		logger.Fatal(err)
	}
	defer snapshots.Stop()

	h := handlers.NewHandler(trading, accounts, sessions, snapshots, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, sessions, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
