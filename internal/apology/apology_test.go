package apology

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("sell: %w", Forbidden("you only have %d shares", 3))
	a, ok := From(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, a.Status)
	assert.Equal(t, "you only have 3 shares", a.Message)

	a, ok = From(errors.New("connection reset by peer"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, a.Status)
	assert.Equal(t, "internal error", a.Message)
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := BadRequest("must provide a symbol")
	err := fmt.Errorf("buy: %w", sentinel)
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, BadRequest("must provide a symbol"))
}
