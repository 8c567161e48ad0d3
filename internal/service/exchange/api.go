package exchange

import "context"

// CandlesticksReq narrows a candlestick page request. From is the unix
// timestamp of the earliest wanted candle; zero means "up to now".
type CandlesticksReq struct {
	CurrencyPair string
	Interval     Interval
	Limit        int
	From         int64
}

// SpotAPI is the vendor SDK boundary: an opaque, blocking RPC client for the
// spot endpoints the bot consumes. The proxy catches and logs every error at
// the call site; none propagates un-annotated.
type SpotAPI interface {
	ListCurrencyPairs(ctx context.Context) ([]CurrencyPair, error)
	ListCandlesticks(ctx context.Context, req CandlesticksReq) ([]Candle, error)
	CreateOrder(ctx context.Context, order Order) (*Order, error)
	GetOrder(ctx context.Context, orderID, currencyPair string) (*Order, error)
	CancelOrder(ctx context.Context, orderID, currencyPair string) (*Order, error)
	ListSpotAccounts(ctx context.Context, currency string) ([]AccountBalance, error)
	ListOrderBook(ctx context.Context, currencyPair string, limit int) (*OrderBook, error)
	ListTickers(ctx context.Context, currencyPair string) ([]Ticker, error)
}
