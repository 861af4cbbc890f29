package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/apology"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoUsername       = apology.BadRequest("must provide a username")
	ErrUsernameTaken    = apology.BadRequest("username already exists")
	ErrNoPassword       = apology.BadRequest("must provide a password")
	ErrPasswordMismatch = apology.BadRequest("password does not match")
	ErrPasswordTooLong  = apology.BadRequest("password must be at most %d bytes", maxPasswordBytes)

	ErrLoginNoUsername = apology.Forbidden("must provide username")
	ErrLoginNoPassword = apology.Forbidden("must provide password")
	ErrInvalidLogin    = apology.Forbidden("invalid username and/or password")
)

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

type Accounts struct {
	store        Store
	startingCash decimal.Decimal
	log          *logrus.Logger

	// HashCost is the bcrypt cost for new passwords.
	HashCost int
}

func NewAccounts(store Store, startingCash decimal.Decimal, log *logrus.Logger) *Accounts {
	return &Accounts{store: store, startingCash: startingCash, log: log, HashCost: bcrypt.DefaultCost}
}

// Register creates a user holding the starting cash and returns its id.
func (a *Accounts) Register(ctx context.Context, username, password, confirmation string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrNoUsername
	}
	_, err := a.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return 0, ErrUsernameTaken
	case !errors.Is(err, database.ErrNotFound):
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if password == "" || confirmation == "" {
		return 0, ErrNoPassword
	}
	if password != confirmation {
		return 0, ErrPasswordMismatch
	}
	if len(password) > maxPasswordBytes {
		return 0, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.HashCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := a.store.CreateUser(ctx, username, string(hash), a.startingCash)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUsername) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	a.log.Infof("registered user %d (%s)", id, username)
	return id, nil
}

func (a *Accounts) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrLoginNoUsername
	}
	if password == "" {
		return models.User{}, ErrLoginNoPassword
	}
	u, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.User{}, ErrInvalidLogin
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)); err != nil {
		a.log.Debugf("failed login for %s", username)
		return models.User{}, ErrInvalidLogin
	}
	return u, nil
}
