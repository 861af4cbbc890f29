package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/ivandimitrovkyulev/WebStockPortfolio/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultIEXBaseURL = "https://cloud.iexapis.com/stable"

// IEXClient fetches quotes from an IEX Cloud compatible endpoint:
//
//	GET {base}/stock/{symbol}/quote?token={key}
//	{"symbol": "NFLX", "companyName": "Netflix Inc.", "latestPrice": 317.94, ...}
type IEXClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logrus.Logger
}

func NewIEXClient(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *IEXClient {
	if baseURL == "" {
		baseURL = DefaultIEXBaseURL
	}
	return &IEXClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        log,
	}
}

func (c *IEXClient) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	addr := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return models.Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warnf("quote %s: status=%d body=%s", symbol, resp.StatusCode, string(body))
		return models.Quote{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var jobj interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return models.Quote{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, symbol, err)
	}

	price, err := decimalAt(jobj, "$.latestPrice")
	if err != nil || !price.IsPositive() {
		return models.Quote{}, fmt.Errorf("%w: %s has no price", ErrUnknownSymbol, symbol)
	}
	name, _ := stringAt(jobj, "$.companyName")
	sym, _ := stringAt(jobj, "$.symbol")
	if sym == "" {
		sym = symbol
	}
	return models.Quote{Symbol: strings.ToUpper(sym), Name: name, Price: price}, nil
}

func stringAt(jobj interface{}, path string) (string, error) {
	v, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: not a string: %v", path, v)
	}
	return s, nil
}

func decimalAt(jobj interface{}, path string) (decimal.Decimal, error) {
	v, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, err
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	}
	return decimal.Zero, fmt.Errorf("%s: not a number: %v", path, v)
}
