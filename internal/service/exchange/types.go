package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPair is the exchange's descriptor for a tradable instrument,
// including the trading constraints an order must satisfy.
type CurrencyPair struct {
	ID              string          `json:"id"`
	Base            string          `json:"base"`
	Quote           string          `json:"quote"`
	Fee             string          `json:"fee"`
	MinBaseAmount   decimal.Decimal `json:"min_base_amount"`
	MinQuoteAmount  decimal.Decimal `json:"min_quote_amount"`
	MaxBaseAmount   decimal.Decimal `json:"max_base_amount"`
	MaxQuoteAmount  decimal.Decimal `json:"max_quote_amount"`
	AmountPrecision int32           `json:"amount_precision"`
	Precision       int32           `json:"precision"`
	TradeStatus     string          `json:"trade_status"`
}

const TradeStatusTradable = "tradable"

func (p CurrencyPair) IsTradable() bool {
	return p.TradeStatus == TradeStatusTradable
}

func (p CurrencyPair) String() string {
	return p.ID
}

// SplitSymbol normalizes "BTC/USDT", "btc-usdt" or "BTC_USDT" into base and
// quote parts. The quote part is empty when the symbol carries none.
func SplitSymbol(symbol string) (string, string) {
	s := strings.ToUpper(strings.NewReplacer("/", "_", "-", "_").Replace(symbol))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// PairID renders the exchange's BASE_QUOTE identifier.
func PairID(base, quote string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(base), strings.ToUpper(quote))
}

type Interval string

const (
	Interval10s Interval = "10s"
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval8h  Interval = "8h"
	Interval1d  Interval = "1d"
	Interval7d  Interval = "7d"
)

func (i Interval) ToString() string {
	return string(i)
}

// Seconds returns the candle duration. Unknown intervals default to one hour.
func (i Interval) Seconds() int64 {
	units := map[byte]int64{'s': 1, 'm': 60, 'h': 3600, 'd': 86400}
	s := string(i)
	if len(s) < 2 {
		return 3600
	}
	unit, ok := units[s[len(s)-1]]
	if !ok {
		return 3600
	}
	var n int64
	for _, c := range s[:len(s)-1] {
		if c < '0' || c > '9' {
			return 3600
		}
		n = n*10 + int64(c-'0')
	}
	return n * unit
}

// Candle is one candlestick row. Closed reports whether the window is
// complete; in-progress candles are filtered out in closed-only mode.
type Candle struct {
	Timestamp  time.Time
	Volume     decimal.Decimal // traded quote volume
	Close      decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Open       decimal.Decimal
	BaseVolume decimal.Decimal // traded base amount
	Closed     bool
}

// AccountBalance is a spot wallet entry.
type AccountBalance struct {
	Currency  string
	Available decimal.Decimal
	Locked    decimal.Decimal
}

// OrderBookLevel is one price level of an order book side.
type OrderBookLevel struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

type OrderBook struct {
	Bids []OrderBookLevel
	Asks []OrderBookLevel
}

type Ticker struct {
	CurrencyPair string
	Last         decimal.Decimal
}
