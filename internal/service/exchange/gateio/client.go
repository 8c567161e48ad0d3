// Package gateio implements the exchange proxy and the Gate.io v4 spot REST
// client behind it.
package gateio

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

const (
	defaultHost = "https://api.gateio.ws"
	apiPrefix   = "/api/v4"
)

var _ exchange.SpotAPI = (*Client)(nil)

// Client talks to the Gate.io v4 spot REST API. Private endpoints are signed
// with HMAC-SHA512 per the v4 scheme; all requests go through a shared rate
// limiter so bursts of candle pagination cannot trip the exchange limits.
type Client struct {
	host    string
	key     string
	secret  string
	http    *http.Client
	limiter *rate.Limiter
}

type ClientOption func(*Client)

func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = strings.TrimSuffix(host, "/")
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func NewClient(key, secret string, opts ...ClientOption) *Client {
	c := &Client{
		host:   defaultHost,
		key:    key,
		secret: secret,
		http:   &http.Client{Timeout: 15 * time.Second},
		// Gate allows far more, but the bot has no reason to exceed this.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sign builds the v4 signature headers: SIGN is the hex HMAC-SHA512 of
// "METHOD\nPATH\nQUERY\nSHA512(body)\nTIMESTAMP".
func (c *Client) sign(method, path, query string, body []byte, timestamp string) string {
	bodyHash := sha512.Sum512(body)
	payload := strings.Join([]string{
		method,
		path,
		query,
		hex.EncodeToString(bodyHash[:]),
		timestamp,
	}, "\n")
	mac := hmac.New(sha512.New, []byte(c.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateio: rate limiter: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateio: marshal body: %w", err)
		}
	}

	fullPath := apiPrefix + path
	endpoint := c.host + fullPath
	rawQuery := query.Encode()
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gateio: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("KEY", c.key)
	req.Header.Set("Timestamp", timestamp)
	req.Header.Set("SIGN", c.sign(method, fullPath, rawQuery, payload, timestamp))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateio: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gateio: %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateio: decode %s response: %w", path, err)
	}
	return nil
}

// wire types

type wirePair struct {
	ID              string `json:"id"`
	Base            string `json:"base"`
	Quote           string `json:"quote"`
	Fee             string `json:"fee"`
	MinBaseAmount   string `json:"min_base_amount"`
	MinQuoteAmount  string `json:"min_quote_amount"`
	MaxBaseAmount   string `json:"max_base_amount"`
	MaxQuoteAmount  string `json:"max_quote_amount"`
	AmountPrecision int32  `json:"amount_precision"`
	Precision       int32  `json:"precision"`
	TradeStatus     string `json:"trade_status"`
}

type wireOrder struct {
	ID           string `json:"id,omitempty"`
	CurrencyPair string `json:"currency_pair"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	TimeInForce  string `json:"time_in_force"`
	Amount       string `json:"amount"`
	Price        string `json:"price"`
	Status       string `json:"status,omitempty"`
	CreateTime   string `json:"create_time,omitempty"`
}

type wireBalance struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type wireOrderBook struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

type wireTicker struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fromWireOrder(w wireOrder) *exchange.Order {
	order := &exchange.Order{
		ID:           w.ID,
		CurrencyPair: w.CurrencyPair,
		Side:         exchange.OrderSide(w.Side),
		Type:         exchange.OrderType(w.Type),
		TimeInForce:  exchange.TimeInForce(w.TimeInForce),
		Amount:       parseDecimal(w.Amount),
		Price:        parseDecimal(w.Price),
		Status:       exchange.OrderStatus(w.Status),
	}
	if ts, err := strconv.ParseInt(w.CreateTime, 10, 64); err == nil {
		order.CreatedAt = time.Unix(ts, 0)
	}
	return order
}

func toWireOrder(o exchange.Order) wireOrder {
	w := wireOrder{
		CurrencyPair: o.CurrencyPair,
		Side:         string(o.Side),
		Type:         string(o.Type),
		TimeInForce:  string(o.TimeInForce),
		Amount:       o.Amount.String(),
	}
	// Market orders carry an empty price on the wire.
	if o.Type == exchange.OrderTypeLimit {
		w.Price = o.Price.String()
	}
	return w
}

// SpotAPI implementation

func (c *Client) ListCurrencyPairs(ctx context.Context) ([]exchange.CurrencyPair, error) {
	var wire []wirePair
	if err := c.do(ctx, http.MethodGet, "/spot/currency_pairs", nil, nil, &wire); err != nil {
		return nil, err
	}
	pairs := make([]exchange.CurrencyPair, len(wire))
	for i, w := range wire {
		pairs[i] = exchange.CurrencyPair{
			ID:              w.ID,
			Base:            w.Base,
			Quote:           w.Quote,
			Fee:             w.Fee,
			MinBaseAmount:   parseDecimal(w.MinBaseAmount),
			MinQuoteAmount:  parseDecimal(w.MinQuoteAmount),
			MaxBaseAmount:   parseDecimal(w.MaxBaseAmount),
			MaxQuoteAmount:  parseDecimal(w.MaxQuoteAmount),
			AmountPrecision: w.AmountPrecision,
			Precision:       w.Precision,
			TradeStatus:     w.TradeStatus,
		}
	}
	return pairs, nil
}

// ListCandlesticks decodes Gate's string-array candle rows:
// [timestamp, quote volume, close, high, low, open, base amount, closed].
func (c *Client) ListCandlesticks(ctx context.Context, req exchange.CandlesticksReq) ([]exchange.Candle, error) {
	query := url.Values{}
	query.Set("currency_pair", req.CurrencyPair)
	query.Set("interval", req.Interval.ToString())
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.From > 0 {
		query.Set("from", strconv.FormatInt(req.From, 10))
	}

	var rows [][]string
	if err := c.do(ctx, http.MethodGet, "/spot/candlesticks", query, nil, &rows); err != nil {
		return nil, err
	}

	candles := make([]exchange.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 8 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		candles = append(candles, exchange.Candle{
			Timestamp:  time.Unix(ts, 0).UTC(),
			Volume:     parseDecimal(row[1]),
			Close:      parseDecimal(row[2]),
			High:       parseDecimal(row[3]),
			Low:        parseDecimal(row[4]),
			Open:       parseDecimal(row[5]),
			BaseVolume: parseDecimal(row[6]),
			Closed:     row[7] == "true",
		})
	}
	return candles, nil
}

func (c *Client) CreateOrder(ctx context.Context, order exchange.Order) (*exchange.Order, error) {
	var wire wireOrder
	if err := c.do(ctx, http.MethodPost, "/spot/orders", nil, toWireOrder(order), &wire); err != nil {
		return nil, err
	}
	return fromWireOrder(wire), nil
}

func (c *Client) GetOrder(ctx context.Context, orderID, currencyPair string) (*exchange.Order, error) {
	query := url.Values{}
	query.Set("currency_pair", currencyPair)
	var wire wireOrder
	if err := c.do(ctx, http.MethodGet, "/spot/orders/"+orderID, query, nil, &wire); err != nil {
		return nil, err
	}
	return fromWireOrder(wire), nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID, currencyPair string) (*exchange.Order, error) {
	query := url.Values{}
	query.Set("currency_pair", currencyPair)
	var wire wireOrder
	if err := c.do(ctx, http.MethodDelete, "/spot/orders/"+orderID, query, nil, &wire); err != nil {
		return nil, err
	}
	return fromWireOrder(wire), nil
}

func (c *Client) ListSpotAccounts(ctx context.Context, currency string) ([]exchange.AccountBalance, error) {
	query := url.Values{}
	if currency != "" {
		query.Set("currency", currency)
	}
	var wire []wireBalance
	if err := c.do(ctx, http.MethodGet, "/spot/accounts", query, nil, &wire); err != nil {
		return nil, err
	}
	balances := make([]exchange.AccountBalance, len(wire))
	for i, w := range wire {
		balances[i] = exchange.AccountBalance{
			Currency:  w.Currency,
			Available: parseDecimal(w.Available),
			Locked:    parseDecimal(w.Locked),
		}
	}
	return balances, nil
}

func (c *Client) ListOrderBook(ctx context.Context, currencyPair string, limit int) (*exchange.OrderBook, error) {
	query := url.Values{}
	query.Set("currency_pair", currencyPair)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var wire wireOrderBook
	if err := c.do(ctx, http.MethodGet, "/spot/order_book", query, nil, &wire); err != nil {
		return nil, err
	}
	book := &exchange.OrderBook{}
	for _, level := range wire.Bids {
		if len(level) >= 2 {
			book.Bids = append(book.Bids, exchange.OrderBookLevel{Price: parseDecimal(level[0]), Amount: parseDecimal(level[1])})
		}
	}
	for _, level := range wire.Asks {
		if len(level) >= 2 {
			book.Asks = append(book.Asks, exchange.OrderBookLevel{Price: parseDecimal(level[0]), Amount: parseDecimal(level[1])})
		}
	}
	return book, nil
}

func (c *Client) ListTickers(ctx context.Context, currencyPair string) ([]exchange.Ticker, error) {
	query := url.Values{}
	if currencyPair != "" {
		query.Set("currency_pair", currencyPair)
	}
	var wire []wireTicker
	if err := c.do(ctx, http.MethodGet, "/spot/tickers", query, nil, &wire); err != nil {
		return nil, err
	}
	tickers := make([]exchange.Ticker, len(wire))
	for i, w := range wire {
		tickers[i] = exchange.Ticker{CurrencyPair: w.CurrencyPair, Last: parseDecimal(w.Last)}
	}
	return tickers, nil
}
