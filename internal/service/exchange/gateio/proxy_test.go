package gateio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
	"github.com/venantvr/gateio-rsi-bot/internal/entity"
	"github.com/venantvr/gateio-rsi-bot/internal/quotes"
	"github.com/venantvr/gateio-rsi-bot/internal/repo"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
	"github.com/venantvr/gateio-rsi-bot/pkg/decimalx"
)

type fakeSpotAPI struct {
	pairs     []exchange.CurrencyPair
	pairsErr  error
	pairCalls int

	candlePages [][]exchange.Candle
	candleReqs  []exchange.CandlesticksReq

	createdOrders []exchange.Order
	createErr     error

	getResponses []*exchange.Order
	getCalls     int

	cancelCalls int
	cancelErr   error

	balances map[string][]exchange.AccountBalance
	book     *exchange.OrderBook
	tickers  []exchange.Ticker
}

func (f *fakeSpotAPI) ListCurrencyPairs(ctx context.Context) ([]exchange.CurrencyPair, error) {
	f.pairCalls++
	return f.pairs, f.pairsErr
}

func (f *fakeSpotAPI) ListCandlesticks(ctx context.Context, req exchange.CandlesticksReq) ([]exchange.Candle, error) {
	f.candleReqs = append(f.candleReqs, req)
	if len(f.candlePages) == 0 {
		return nil, nil
	}
	page := f.candlePages[0]
	f.candlePages = f.candlePages[1:]
	return page, nil
}

func (f *fakeSpotAPI) CreateOrder(ctx context.Context, order exchange.Order) (*exchange.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	order.ID = "order-1"
	order.Status = exchange.OrderStatusOpen
	f.createdOrders = append(f.createdOrders, order)
	return &order, nil
}

func (f *fakeSpotAPI) GetOrder(ctx context.Context, orderID, currencyPair string) (*exchange.Order, error) {
	f.getCalls++
	if len(f.getResponses) == 0 {
		return nil, errors.New("order not found")
	}
	order := f.getResponses[0]
	if len(f.getResponses) > 1 {
		f.getResponses = f.getResponses[1:]
	}
	return order, nil
}

func (f *fakeSpotAPI) CancelOrder(ctx context.Context, orderID, currencyPair string) (*exchange.Order, error) {
	f.cancelCalls++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &exchange.Order{ID: orderID, Status: exchange.OrderStatusCancelled}, nil
}

func (f *fakeSpotAPI) ListSpotAccounts(ctx context.Context, currency string) ([]exchange.AccountBalance, error) {
	return f.balances[currency], nil
}

func (f *fakeSpotAPI) ListOrderBook(ctx context.Context, currencyPair string, limit int) (*exchange.OrderBook, error) {
	if f.book == nil {
		return nil, errors.New("no book")
	}
	return f.book, nil
}

func (f *fakeSpotAPI) ListTickers(ctx context.Context, currencyPair string) ([]exchange.Ticker, error) {
	return f.tickers, nil
}

var _ exchange.SpotAPI = (*fakeSpotAPI)(nil)

type recordingLedger struct {
	trades []entity.Trade
}

var _ repo.TradeRepo = (*recordingLedger)(nil)

func (f *recordingLedger) Create(ctx context.Context, trade entity.Trade) error {
	f.trades = append(f.trades, trade)
	return nil
}

func (f *recordingLedger) FetchOpenTrades(ctx context.Context) (map[string]repo.OpenTrade, error) {
	return nil, nil
}

func (f *recordingLedger) FindByThread(ctx context.Context, thread string) ([]entity.Trade, error) {
	return f.trades, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendText(ctx context.Context, base, message string) error {
	f.messages = append(f.messages, base+": "+message)
	return nil
}

func (f *fakeNotifier) SendImage(ctx context.Context, image []byte) error { return nil }

func btcUsdtDescriptor() exchange.CurrencyPair {
	return exchange.CurrencyPair{
		ID:              "BTC_USDT",
		Base:            "BTC",
		Quote:           "USDT",
		MinQuoteAmount:  decimal.NewFromInt(3),
		AmountPrecision: 4,
		Precision:       2,
		TradeStatus:     exchange.TradeStatusTradable,
	}
}

func newTestProxy(t *testing.T, api *fakeSpotAPI, cfg Config, opts ...Option) *Proxy {
	t.Helper()
	if cfg.Quote == "" {
		cfg.Quote = "USDT"
	}
	if api.pairs == nil {
		api.pairs = []exchange.CurrencyPair{btcUsdtDescriptor()}
	}
	proxy, err := NewProxy(context.Background(), api, cfg, opts...)
	require.NoError(t, err)
	return proxy
}

func testPair(t *testing.T) *asset.Pair {
	t.Helper()
	return asset.NewPair("BTC_USDT", "BTC", "USDT", t.TempDir())
}

func TestNewProxyFiltersSnapshot(t *testing.T) {
	api := &fakeSpotAPI{
		pairs: []exchange.CurrencyPair{
			btcUsdtDescriptor(),
			{ID: "ETH_BTC", Base: "ETH", Quote: "BTC", TradeStatus: exchange.TradeStatusTradable},
			{ID: "DOGE_USDT", Base: "DOGE", Quote: "USDT", TradeStatus: "untradable"},
		},
	}
	proxy := newTestProxy(t, api, Config{})

	_, ok := proxy.PairSnapshot("BTC_USDT")
	assert.True(t, ok)
	_, ok = proxy.PairSnapshot("ETH_BTC")
	assert.False(t, ok, "other quote currencies are out of scope")
	_, ok = proxy.PairSnapshot("DOGE_USDT")
	assert.False(t, ok, "untradable pairs are out of scope")
}

func TestSnapshotFileReusedWhileFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.json")

	first := &fakeSpotAPI{}
	newTestProxy(t, first, Config{SnapshotFile: path})
	require.Equal(t, 1, first.pairCalls)

	// The second proxy must come up from the file alone.
	second := &fakeSpotAPI{pairs: []exchange.CurrencyPair{}, pairsErr: errors.New("api down")}
	proxy, err := NewProxy(context.Background(), second, Config{Quote: "USDT", SnapshotFile: path})
	require.NoError(t, err)
	assert.Zero(t, second.pairCalls)

	_, ok := proxy.PairSnapshot("BTC_USDT")
	assert.True(t, ok)
}

func TestPrecisionFallbackForUnknownPair(t *testing.T) {
	proxy := newTestProxy(t, &fakeSpotAPI{}, Config{})
	unknown := asset.NewPair("XYZ_USDT", "XYZ", "USDT", t.TempDir())

	assert.EqualValues(t, 256, proxy.BaseQuantityPrecision(unknown))
	assert.EqualValues(t, 256, proxy.QuotePrecision(unknown))
	assert.True(t, proxy.TokenMinQuoteAmount(unknown).IsZero())
}

func TestFetchCandlesPaginatesBackward(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := make([]exchange.Candle, 3)
	for i := range newer {
		newer[i] = exchange.Candle{Timestamp: base.Add(time.Duration(3+i) * time.Hour), Closed: true}
	}
	older := make([]exchange.Candle, 3)
	for i := range older {
		older[i] = exchange.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Closed: true}
	}

	api := &fakeSpotAPI{candlePages: [][]exchange.Candle{newer, older}}
	proxy := newTestProxy(t, api, Config{PageLimit: 3})
	pair := testPair(t)

	rows := proxy.FetchCandles(context.Background(), pair, exchange.Interval1h, 5)
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].Timestamp.Before(rows[i].Timestamp), "candles must be ascending")
	}
	assert.Equal(t, base.Add(1*time.Hour), rows[0].Timestamp, "oldest surplus candle is dropped")

	require.Len(t, api.candleReqs, 2)
	assert.Zero(t, api.candleReqs[0].From)
	wantFrom := newer[0].Timestamp.Unix() - 3*3600
	assert.Equal(t, wantFrom, api.candleReqs[1].From, "second page ends where the first began")
}

func TestFetchCandlesClosedOnlyFilter(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	page := []exchange.Candle{
		{Timestamp: base, Closed: true},
		{Timestamp: base.Add(time.Hour), Closed: true},
		{Timestamp: base.Add(2 * time.Hour), Closed: false},
	}
	api := &fakeSpotAPI{candlePages: [][]exchange.Candle{page}}
	proxy := newTestProxy(t, api, Config{PageLimit: 10})
	pair := testPair(t)

	rows := proxy.FetchCandlesFilter(context.Background(), pair, exchange.Interval1h, 10, true)
	require.Len(t, rows, 2)
	assert.True(t, rows[len(rows)-1].Closed)
}

func TestFetchCandlesErrorYieldsEmpty(t *testing.T) {
	proxy := newTestProxy(t, &fakeSpotAPI{}, Config{})
	proxy.api = &failingAPI{}
	pair := testPair(t)

	rows := proxy.FetchCandles(context.Background(), pair, exchange.Interval1h, 10)
	assert.Empty(t, rows)
}

type failingAPI struct{ fakeSpotAPI }

func (f *failingAPI) ListCandlesticks(ctx context.Context, req exchange.CandlesticksReq) ([]exchange.Candle, error) {
	return nil, errors.New("boom")
}

func TestBuySellPriceAveragesTopLevels(t *testing.T) {
	book := &exchange.OrderBook{
		Asks: []exchange.OrderBookLevel{
			{Price: decimalx.MustFromString("100.10")},
			{Price: decimalx.MustFromString("100.20")},
			{Price: decimalx.MustFromString("100.30")},
			{Price: decimalx.MustFromString("100.40")},
			{Price: decimalx.MustFromString("100.50")},
			{Price: decimalx.MustFromString("999.99")}, // beyond the depth, ignored
		},
		Bids: []exchange.OrderBookLevel{
			{Price: decimalx.MustFromString("99.90")},
			{Price: decimalx.MustFromString("99.80")},
		},
	}
	proxy := newTestProxy(t, &fakeSpotAPI{book: book}, Config{})
	pair := testPair(t)

	buy := proxy.BuyPrice(context.Background(), pair)
	assert.Equal(t, "100.3 USDT", buy.String())

	sell := proxy.SellPrice(context.Background(), pair)
	assert.Equal(t, "99.85 USDT", sell.String())
}

func TestWaitForOrderZeroBudgetPollsOnce(t *testing.T) {
	open := &exchange.Order{ID: "order-1", Status: exchange.OrderStatusOpen}
	api := &fakeSpotAPI{getResponses: []*exchange.Order{open}}
	proxy := newTestProxy(t, api, Config{MaxWait: 0})
	pair := testPair(t)

	order, status := proxy.WaitForOrder(context.Background(), pair, "order-1")
	require.NotNil(t, order)
	assert.Equal(t, exchange.OrderStatusOpen, status)
	assert.Equal(t, 1, api.getCalls, "zero budget means a single poll")
}

func TestWaitForOrderStopsOnClose(t *testing.T) {
	open := &exchange.Order{ID: "order-1", Status: exchange.OrderStatusOpen}
	closed := &exchange.Order{ID: "order-1", Status: exchange.OrderStatusClosed}
	api := &fakeSpotAPI{getResponses: []*exchange.Order{open, closed}}
	proxy := newTestProxy(t, api, Config{MaxWait: time.Second, SleepInterval: time.Millisecond})
	pair := testPair(t)

	order, status := proxy.WaitForOrder(context.Background(), pair, "order-1")
	require.NotNil(t, order)
	assert.Equal(t, exchange.OrderStatusClosed, status)
	assert.Equal(t, 2, api.getCalls)
}

func TestDebugMarketBuyNeverReachesExchange(t *testing.T) {
	book := &exchange.OrderBook{
		Asks: []exchange.OrderBookLevel{{Price: decimalx.MustFromString("50000.00")}},
	}
	api := &fakeSpotAPI{book: book}
	proxy := newTestProxy(t, api, Config{Debug: true})
	pair := testPair(t)

	order := proxy.CreateMarketBuyOrder(context.Background(), pair, quotes.NewQuoteFromFloat(100, "USDT"), 2)
	require.NotNil(t, order)
	assert.Empty(t, api.createdOrders, "debug orders stay local")
	assert.True(t, strings.HasPrefix(order.ID, "debug-"))
	assert.Equal(t, exchange.OrderStatusClosed, order.Status)
	assert.Equal(t, "50000", order.Price.String())
	assert.Equal(t, "50", order.Amount.String(), "half the balance for two free slots")
}

func TestMarketSellBelowMinimumSkipped(t *testing.T) {
	api := &fakeSpotAPI{
		tickers: []exchange.Ticker{{CurrencyPair: "BTC_USDT", Last: decimalx.MustFromString("50000")}},
	}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	// 0.00001 BTC at 50000 is 0.5 USDT, under the 3 USDT minimum. The
	// quantity also truncates to zero at 4 decimals.
	tiny := quotes.NewQuantityFromFloat(0.00001, "BTC")
	order := proxy.CreateMarketSellOrder(context.Background(), pair, tiny, quotes.ZeroPrice)
	assert.Nil(t, order)
	assert.Empty(t, api.createdOrders)
}

func TestMarketSellTruncatesQuantity(t *testing.T) {
	closed := &exchange.Order{ID: "order-1", Status: exchange.OrderStatusClosed, Price: decimalx.MustFromString("50000")}
	api := &fakeSpotAPI{
		tickers:      []exchange.Ticker{{CurrencyPair: "BTC_USDT", Last: decimalx.MustFromString("50000")}},
		getResponses: []*exchange.Order{closed},
	}
	proxy := newTestProxy(t, api, Config{MaxWait: time.Second, SleepInterval: time.Millisecond})
	pair := testPair(t)

	order := proxy.CreateMarketSellOrder(context.Background(), pair, quotes.NewQuantityFromFloat(0.123456789, "BTC"), quotes.ZeroPrice)
	require.NotNil(t, order)
	require.Len(t, api.createdOrders, 1)
	assert.Equal(t, "0.1234", api.createdOrders[0].Amount.String(), "amount truncates, never rounds up")
	assert.Equal(t, exchange.TimeInForceIOC, api.createdOrders[0].TimeInForce)
}

func TestQuoteToTokenQuantityRoundsDown(t *testing.T) {
	proxy := newTestProxy(t, &fakeSpotAPI{}, Config{})
	pair := testPair(t)

	budget := quotes.NewQuoteFromFloat(100, "USDT")
	price := quotes.NewPriceFromFloat(30000, "USDT")
	quantity := proxy.QuoteToTokenQuantity(pair, budget, price)
	assert.Equal(t, "0.0033", quantity.Amount.String())

	assert.True(t, proxy.QuoteToTokenQuantity(pair, budget, quotes.ZeroPrice).IsZero())
}

func TestBuyFlowRecordsAndNotifies(t *testing.T) {
	book := &exchange.OrderBook{
		Asks: []exchange.OrderBookLevel{{Price: decimalx.MustFromString("50000.00")}},
	}
	api := &fakeSpotAPI{
		book: book,
		balances: map[string][]exchange.AccountBalance{
			"USDT": {{Currency: "USDT", Available: decimal.NewFromInt(200)}},
		},
	}
	ledger := &recordingLedger{}
	notifier := &fakeNotifier{}
	proxy := newTestProxy(t, api, Config{Debug: true}, WithLedger(ledger), WithNotifier(notifier))
	pair := testPair(t)

	ok, price, thread := proxy.Buy(context.Background(), pair, 2, "rsi advisor")
	require.True(t, ok)
	assert.Equal(t, "50000 USDT", price.String())
	assert.NotEmpty(t, thread)

	require.Len(t, ledger.trades, 1)
	assert.Equal(t, entity.TradeActionBuy, ledger.trades[0].Action)
	assert.Equal(t, thread, ledger.trades[0].Thread)
	assert.Equal(t, "rsi advisor", ledger.trades[0].Detail)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "bought at 50000 USDT")
}

func TestSellFlowClosesThread(t *testing.T) {
	book := &exchange.OrderBook{
		Bids: []exchange.OrderBookLevel{{Price: decimalx.MustFromString("51000.00")}},
	}
	api := &fakeSpotAPI{
		book: book,
		balances: map[string][]exchange.AccountBalance{
			"BTC": {{Currency: "BTC", Available: decimalx.MustFromString("0.01")}},
		},
		tickers: []exchange.Ticker{{CurrencyPair: "BTC_USDT", Last: decimalx.MustFromString("51000")}},
	}
	ledger := &recordingLedger{}
	proxy := newTestProxy(t, api, Config{Debug: true}, WithLedger(ledger))
	pair := testPair(t)

	ok, price := proxy.Sell(context.Background(), pair, "thread-42")
	require.True(t, ok)
	assert.Equal(t, "51000 USDT", price.String())

	require.Len(t, ledger.trades, 1)
	assert.Equal(t, entity.TradeActionSell, ledger.trades[0].Action)
	assert.Equal(t, "thread-42", ledger.trades[0].Thread)
}

func TestPlaceConditionalSellOrder(t *testing.T) {
	api := &fakeSpotAPI{}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	order := proxy.PlaceConditionalSellOrder(context.Background(),
		pair, quotes.NewQuantityFromFloat(0.123456789, "BTC"), quotes.NewPriceFromFloat(55000, "USDT"))
	require.NotNil(t, order)
	require.Len(t, api.createdOrders, 1)
	created := api.createdOrders[0]
	assert.Equal(t, exchange.OrderTypeLimit, created.Type)
	assert.Equal(t, exchange.TimeInForceGTC, created.TimeInForce)
	assert.Equal(t, exchange.OrderSideSell, created.Side)
	assert.Equal(t, "0.1234", created.Amount.String(), "quantity truncates to the pair precision")
	assert.Equal(t, "55000", created.Price.String())
}

func TestPlaceConditionalSellOrderZeroQuantitySkipped(t *testing.T) {
	api := &fakeSpotAPI{}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	// 0.00001 truncates to zero at 4 decimals; nothing reaches the exchange.
	order := proxy.PlaceConditionalSellOrder(context.Background(),
		pair, quotes.NewQuantityFromFloat(0.00001, "BTC"), quotes.NewPriceFromFloat(55000, "USDT"))
	assert.Nil(t, order)
	assert.Empty(t, api.createdOrders)
}

func TestPlaceConditionalBuyOrder(t *testing.T) {
	api := &fakeSpotAPI{
		balances: map[string][]exchange.AccountBalance{
			"USDT": {{Currency: "USDT", Available: decimal.NewFromInt(200)}},
		},
	}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	order := proxy.PlaceConditionalBuyOrder(context.Background(), pair, quotes.NewPriceFromFloat(40000, "USDT"), 2)
	require.NotNil(t, order)
	require.Len(t, api.createdOrders, 1)
	created := api.createdOrders[0]
	assert.Equal(t, exchange.OrderTypeLimit, created.Type)
	assert.Equal(t, exchange.TimeInForceGTC, created.TimeInForce)
	assert.Equal(t, exchange.OrderSideBuy, created.Side)
	assert.Equal(t, "0.0025", created.Amount.String(), "100 USDT at 40000 rounded down")
}

func TestPlaceConditionalBuyOrderBudgetBelowPrecisionSkipped(t *testing.T) {
	api := &fakeSpotAPI{
		balances: map[string][]exchange.AccountBalance{
			"USDT": {{Currency: "USDT", Available: decimalx.MustFromString("0.0001")}},
		},
	}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	// The slot budget converts to a quantity that truncates to zero.
	order := proxy.PlaceConditionalBuyOrder(context.Background(), pair, quotes.NewPriceFromFloat(40000, "USDT"), 1)
	assert.Nil(t, order)
	assert.Empty(t, api.createdOrders)
}

func TestPlaceConditionalBuyOrderOutsidePriceBounds(t *testing.T) {
	api := &fakeSpotAPI{
		balances: map[string][]exchange.AccountBalance{
			"USDT": {{Currency: "USDT", Available: decimal.NewFromInt(200)}},
		},
	}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)
	pair.SetPriceBounds(quotes.NewPriceFromFloat(30000, "USDT"), quotes.NewPriceFromFloat(60000, "USDT"))

	order := proxy.PlaceConditionalBuyOrder(context.Background(), pair, quotes.NewPriceFromFloat(70000, "USDT"), 1)
	assert.Nil(t, order)
	assert.Empty(t, api.createdOrders)
}

func TestLimitOrderNilOnRejection(t *testing.T) {
	tests := []struct {
		name  string
		place func(*Proxy, *asset.Pair) *exchange.Order
	}{
		{
			name: "conditional sell",
			place: func(p *Proxy, pair *asset.Pair) *exchange.Order {
				return p.PlaceConditionalSellOrder(context.Background(),
					pair, quotes.NewQuantityFromFloat(0.5, "BTC"), quotes.NewPriceFromFloat(55000, "USDT"))
			},
		},
		{
			name: "conditional buy",
			place: func(p *Proxy, pair *asset.Pair) *exchange.Order {
				return p.PlaceConditionalBuyOrder(context.Background(),
					pair, quotes.NewPriceFromFloat(40000, "USDT"), 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSpotAPI{
				createErr: errors.New("insufficient balance"),
				balances: map[string][]exchange.AccountBalance{
					"USDT": {{Currency: "USDT", Available: decimal.NewFromInt(200)}},
				},
			}
			proxy := newTestProxy(t, api, Config{})

			order := tt.place(proxy, testPair(t))
			assert.Nil(t, order, "a rejected submission yields nil, never an error")
		})
	}
}

func TestPollOrder(t *testing.T) {
	closed := &exchange.Order{ID: "order-1", Status: exchange.OrderStatusClosed}
	api := &fakeSpotAPI{getResponses: []*exchange.Order{closed}}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	order, status, err := proxy.PollOrder(context.Background(), pair, "order-1")
	require.NoError(t, err)
	assert.Equal(t, exchange.OrderStatusClosed, status)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, 1, api.getCalls)

	api.getResponses = nil
	_, _, err = proxy.PollOrder(context.Background(), pair, "gone")
	assert.Error(t, err, "single-shot polling surfaces lookup errors")
}

func TestCancelOrderFireAndForget(t *testing.T) {
	api := &fakeSpotAPI{}
	proxy := newTestProxy(t, api, Config{})
	pair := testPair(t)

	proxy.CancelOrder(context.Background(), pair, "order-1")
	assert.Equal(t, 1, api.cancelCalls)

	// A failed cancel is logged and swallowed.
	api.cancelErr = errors.New("already filled")
	proxy.CancelOrder(context.Background(), pair, "order-1")
	assert.Equal(t, 2, api.cancelCalls)
}
