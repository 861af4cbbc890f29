package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"GO_ENV", "PORT", "LOG_LEVEL", "POSTGRES_URL", "REDIS_URL", "SESSION_SECRET", "SESSION_TTL",
		"QUOTE_PROVIDER", "API_KEY", "QUOTE_BASE_URL", "QUOTE_TIMEOUT", "PRICE_UPDATE_INTERVAL",
		"STARTING_CASH", "SNAPSHOT_SCHEDULE", "LEDGER_ORDER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://localhost/finance")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, logrus.DebugLevel, c.LogLevel)
	assert.Equal(t, QuoteSimulated, c.QuoteProvider)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, 5*time.Second, c.QuoteTimeout)
	assert.Equal(t, time.Hour, c.PriceUpdateInterval)
	assert.True(t, c.StartingCash.Equal(decimal.NewFromInt(10000)))
	assert.False(t, c.NewestFirst)
	assert.True(t, c.DevSecret())
}

func TestLoadIEX(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URL", "postgres://localhost/finance")
	t.Setenv("API_KEY", "pk_test")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LEDGER_ORDER", "DESC")
	t.Setenv("PRICE_UPDATE_INTERVAL", "-5")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, QuoteIEX, c.QuoteProvider)
	assert.True(t, c.NewestFirst)
	assert.False(t, c.DevSecret())
	assert.Equal(t, time.Hour, c.PriceUpdateInterval)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing postgres":  {},
		"iex without key":   {"POSTGRES_URL": "x", "QUOTE_PROVIDER": "iex"},
		"unknown provider":  {"POSTGRES_URL": "x", "QUOTE_PROVIDER": "yahoo"},
		"bad ttl":           {"POSTGRES_URL": "x", "SESSION_TTL": "forever"},
		"negative cash":     {"POSTGRES_URL": "x", "STARTING_CASH": "-1"},
		"cash too large":    {"POSTGRES_URL": "x", "STARTING_CASH": "1e15"},
		"bad ledger order":  {"POSTGRES_URL": "x", "LEDGER_ORDER": "random"},
		"prod needs secret": {"POSTGRES_URL": "x", "GO_ENV": "production"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
