package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	cases := map[string]string{
		"8500":      "$8,500.00",
		"9300.5":    "$9,300.50",
		"0":         "$0.00",
		"1234567.8": "$1,234,567.80",
		"0.125":     "$0.13",
	}
	for in, want := range cases {
		assert.Equal(t, want, USD(decimal.RequireFromString(in)), in)
	}
}
