// Package session issues signed session tokens and guards routes with them.
// The authenticated user id lives only in the request's gin context.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/apology"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "session"
	userIDKey  = "user_id"
	issuer     = "webstockportfolio"
)

var ErrInvalid = errors.New("invalid session")

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Revoker remembers logged-out token ids until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	log     *logrus.Logger

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// NewManager builds a Manager. revoker may be nil, in which case logout only
// clears the cookie and tokens stay valid until they expire.
func NewManager(secret string, ttl time.Duration, revoker Revoker, log *logrus.Logger) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, revoker: revoker, log: log}
}

func (m *Manager) Issue(userID int64, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Verify checks the signature, expiry and revocation of a token.
func (m *Manager) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", ErrInvalid)
		}
	}
	return claims, nil
}

// Revoke invalidates a token before its expiry. Invalid tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	if m.revoker == nil || tokenString == "" {
		return nil
	}
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Token returns the session token of a request: the cookie first, then a
// Bearer Authorization header.
func Token(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (m *Manager) SetCookie(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(time.Until(exp).Seconds()), "/", "", m.Secure, true)
}

func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.Secure, true)
}

// Require rejects requests without a valid session and records the user id
// for the handlers behind it.
func (m *Manager) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := Token(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apology.Unauthorized("must log in"))
			return
		}
		claims, err := m.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalid) {
				m.log.Errorf("verify session: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apology.Internal())
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, apology.Unauthorized("must log in"))
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the id stored by Require.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
