package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/apology"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/currency"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/database"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/portfolio"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/service"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/session"
	"github.com/sirupsen/logrus"
)

// Valuations lists recorded daily snapshots of a user.
type Valuations interface {
	List(ctx context.Context, userID int64) ([]database.DailyValuation, error)
}

type Handler struct {
	trading    *service.Trading
	accounts   *service.Accounts
	sessions   *session.Manager
	valuations Valuations
	log        *logrus.Logger
}

func NewHandler(t *service.Trading, a *service.Accounts, s *session.Manager, v Valuations, log *logrus.Logger) *Handler {
	return &Handler{trading: t, accounts: a, sessions: s, valuations: v, log: log}
}

// Field is a request value kept as text so that a missing value and a
// malformed one stay distinguishable. JSON numbers are accepted as well.
type Field string

func (f *Field) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	}
	*f = Field(strings.TrimSpace(string(b)))
	return nil
}

func (f Field) String() string { return string(f) }

type CredentialsRequest struct {
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	Confirmation string `json:"confirmation" form:"confirmation"`
}

type OrderRequest struct {
	Symbol string `json:"symbol" form:"symbol"`
	Shares Field  `json:"shares" form:"shares"`
}

type TopUpRequest struct {
	TopUp  Field `json:"top-up" form:"top-up"`
	Amount Field `json:"amount" form:"amount"`
}

var errBadBody = apology.BadRequest("malformed request body")

// fail answers with the apology carried by err; anything else is logged and
// hidden behind a generic 500.
func (h *Handler) fail(c *gin.Context, err error) {
	a, ok := apology.From(err)
	if !ok {
		h.log.WithField("request_id", c.GetString(requestIDKey)).Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(a.Status, a)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		h.log.Warnf("invalid body: %v", err)
		c.JSON(http.StatusBadRequest, errBadBody)
		return false
	}
	return true
}

func (h *Handler) userID(c *gin.Context) (int64, bool) {
	id, ok := session.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apology.Unauthorized("must log in"))
	}
	return id, ok
}

func (h *Handler) Register(c *gin.Context) {
	var req CredentialsRequest
	if !h.bind(c, &req) {
		return
	}
	id, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": id})
}

func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if !h.bind(c, &req) {
		return
	}
	// a new login always replaces the previous session
	if old := session.Token(c); old != "" {
		if err := h.sessions.Revoke(c.Request.Context(), old); err != nil {
			h.log.Warnf("revoke previous session: %v", err)
		}
	}
	u, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.sessions.ClearCookie(c)
		h.fail(c, err)
		return
	}
	token, exp, err := h.sessions.Issue(u.ID, u.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sessions.SetCookie(c, token, exp)
	c.JSON(http.StatusOK, gin.H{"user_id": u.ID, "token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), session.Token(c)); err != nil {
		h.log.Warnf("revoke session: %v", err)
	}
	h.sessions.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.trading.Quote(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":    q.Symbol,
		"name":      q.Name,
		"price":     q.Price,
		"price_usd": currency.USD(q.Price),
	})
}

func (h *Handler) Buy(c *gin.Context) {
	h.order(c, h.trading.Buy)
}

func (h *Handler) Sell(c *gin.Context) {
	h.order(c, h.trading.Sell)
}

func (h *Handler) order(c *gin.Context, execute func(context.Context, int64, string, string) (service.Execution, error)) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req OrderRequest
	if !h.bind(c, &req) {
		return
	}
	ex, err := execute(c.Request.Context(), userID, req.Symbol, req.Shares.String())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"cash":        ex.Cash,
		"cash_usd":    currency.USD(ex.Cash),
		"transaction": ex.Transaction,
	})
}

func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req TopUpRequest
	if !h.bind(c, &req) {
		return
	}
	amount := req.TopUp
	if amount == "" {
		amount = req.Amount
	}
	cash, err := h.trading.TopUp(c.Request.Context(), userID, amount.String())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cash": cash, "cash_usd": currency.USD(cash)})
}

type portfolioResponse struct {
	portfolio.Portfolio
	CashUSD  string `json:"cash_usd"`
	TotalUSD string `json:"total_usd"`
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	p, err := h.trading.Portfolio(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolioResponse{Portfolio: p, CashUSD: currency.USD(p.Cash), TotalUSD: currency.USD(p.Total)})
}

func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	txs, err := h.trading.History(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *Handler) GetValuations(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	rows, err := h.valuations.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	res := []map[string]string{}
	for _, r := range rows {
		res = append(res, map[string]string{"date": r.Date, "total": r.Total.StringFixed(2), "total_usd": currency.USD(r.Total)})
	}
	c.JSON(http.StatusOK, gin.H{"valuations": res})
}
