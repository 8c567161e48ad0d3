package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
	"github.com/venantvr/gateio-rsi-bot/internal/notify"
	"github.com/venantvr/gateio-rsi-bot/internal/quotes"
	"github.com/venantvr/gateio-rsi-bot/internal/repo"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

// unknownPairPrecision is the fallback for pairs missing from the snapshot:
// effectively unconstrained, so a missing metadata row never blocks an order.
const unknownPairPrecision = 256

// Config tunes the proxy. Durations and candle depths come straight from the
// bot section of the configuration file.
type Config struct {
	Quote          string        `mapstructure:"quote"`
	NominalCandles int           `mapstructure:"nominal_candles"`
	MaxCandles     int           `mapstructure:"max_candles"`
	PageLimit      int           `mapstructure:"page_limit"`
	ClosedOnly     bool          `mapstructure:"closed_only"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	SleepInterval  time.Duration `mapstructure:"sleep_interval"`
	// Debug keeps every market order local: orders are synthesized with a
	// simulated fill price and never reach the exchange. This is how the
	// bot runs against a live feed without risking capital.
	Debug          bool          `mapstructure:"debug"`
	SnapshotFile   string        `mapstructure:"snapshot_file"`
	SnapshotMaxAge time.Duration `mapstructure:"snapshot_max_age"`
}

func (c *Config) applyDefaults() {
	if c.PageLimit <= 0 {
		c.PageLimit = 1000
	}
	if c.NominalCandles <= 0 {
		c.NominalCandles = 200
	}
	if c.MaxCandles <= 0 {
		c.MaxCandles = 2000
	}
	if c.SleepInterval <= 0 {
		c.SleepInterval = 5 * time.Second
	}
	if c.SnapshotMaxAge <= 0 {
		c.SnapshotMaxAge = 240 * time.Hour
	}
}

// Proxy is the facade over the exchange's spot API. Every SDK failure is
// caught here, logged with the pair and operation, and surfaced as a
// sentinel (nil order, zero price, empty slice); callers treat sentinels as
// "operation did not complete".
type Proxy struct {
	api    exchange.SpotAPI
	cfg    Config
	logger *slog.Logger

	// tradablePairs is written once at construction and only read after,
	// so it needs no lock.
	tradablePairs map[string]exchange.CurrencyPair

	ledger   repo.TradeRepo
	notifier notify.Service
}

type Option func(*Proxy)

func WithLedger(ledger repo.TradeRepo) Option {
	return func(p *Proxy) {
		p.ledger = ledger
	}
}

func WithNotifier(notifier notify.Service) Option {
	return func(p *Proxy) {
		p.notifier = notifier
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// NewProxy builds a proxy and primes the tradable-pair snapshot, loading it
// from the local cache file when fresh and refetching otherwise. A snapshot
// failure is fatal: trading without instrument constraints is not an option.
func NewProxy(ctx context.Context, api exchange.SpotAPI, cfg Config, opts ...Option) (*Proxy, error) {
	cfg.applyDefaults()
	p := &Proxy{
		api:      api,
		cfg:      cfg,
		logger:   slog.Default(),
		notifier: notify.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "gateio-proxy"))

	pairs, err := p.loadPairSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	p.tradablePairs = make(map[string]exchange.CurrencyPair, len(pairs))
	for _, pair := range pairs {
		p.tradablePairs[pair.ID] = pair
	}
	p.logger.Info("tradable pairs primed", slog.Int("count", len(p.tradablePairs)))
	return p, nil
}

// loadPairSnapshot returns the tradable pairs quoted in the configured
// currency, from disk when the cache file is younger than the freshness
// window, otherwise from the exchange (persisting the result).
func (p *Proxy) loadPairSnapshot(ctx context.Context) ([]exchange.CurrencyPair, error) {
	if p.cfg.SnapshotFile != "" {
		if info, err := os.Stat(p.cfg.SnapshotFile); err == nil {
			if time.Since(info.ModTime()) < p.cfg.SnapshotMaxAge {
				pairs, err := readSnapshotFile(p.cfg.SnapshotFile)
				if err == nil {
					return pairs, nil
				}
				p.logger.Warn("snapshot file unreadable, refetching", slog.String("error", err.Error()))
			} else {
				// Stale snapshots are deleted, not trusted.
				_ = os.Remove(p.cfg.SnapshotFile)
			}
		}
	}

	all, err := p.api.ListCurrencyPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateio: list currency pairs: %w", err)
	}
	pairs := make([]exchange.CurrencyPair, 0, len(all))
	for _, pair := range all {
		if pair.Quote == p.cfg.Quote && pair.IsTradable() {
			pairs = append(pairs, pair)
		}
	}

	if p.cfg.SnapshotFile != "" {
		if err := writeSnapshotFile(p.cfg.SnapshotFile, pairs); err != nil {
			p.logger.Warn("snapshot not persisted", slog.String("error", err.Error()))
		}
	}
	return pairs, nil
}

func readSnapshotFile(path string) ([]exchange.CurrencyPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pairs []exchange.CurrencyPair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func writeSnapshotFile(path string, pairs []exchange.CurrencyPair) error {
	raw, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// PairSnapshot looks up the cached exchange descriptor for a pair id.
func (p *Proxy) PairSnapshot(id string) (exchange.CurrencyPair, bool) {
	pair, ok := p.tradablePairs[id]
	return pair, ok
}

// BaseQuantityPrecision is the decimal precision for base-asset amounts,
// used when sizing sell orders.
func (p *Proxy) BaseQuantityPrecision(pair *asset.Pair) int32 {
	if snapshot, ok := p.tradablePairs[pair.ID]; ok {
		return snapshot.AmountPrecision
	}
	return unknownPairPrecision
}

// QuotePrecision is the decimal precision for quote-currency amounts, used
// when sizing buy orders.
func (p *Proxy) QuotePrecision(pair *asset.Pair) int32 {
	if snapshot, ok := p.tradablePairs[pair.ID]; ok {
		return snapshot.Precision
	}
	return unknownPairPrecision
}

// TokenMinQuoteAmount is the smallest order value the exchange accepts for
// the pair, in quote currency. Unknown pairs report zero.
func (p *Proxy) TokenMinQuoteAmount(pair *asset.Pair) quotes.Quote {
	if snapshot, ok := p.tradablePairs[pair.ID]; ok {
		return quotes.NewQuote(snapshot.MinQuoteAmount, p.cfg.Quote)
	}
	return quotes.NewQuote(decimal.Zero, p.cfg.Quote)
}

// TokenPrice is the last traded price for the pair, or ZeroPrice when the
// pair is unknown or the ticker call fails.
func (p *Proxy) TokenPrice(ctx context.Context, pair *asset.Pair) quotes.Price {
	if _, ok := p.tradablePairs[pair.ID]; !ok {
		return quotes.ZeroPrice
	}
	tickers, err := p.api.ListTickers(ctx, pair.ID)
	if err != nil || len(tickers) == 0 {
		p.logCurrencyWarn(pair, "ticker lookup failed", err)
		return quotes.ZeroPrice
	}
	return quotes.NewPrice(tickers[0].Last, pair.Quote)
}

// QuotePosition is the available balance of the trading quote currency.
func (p *Proxy) QuotePosition(ctx context.Context) quotes.Quote {
	balances, err := p.api.ListSpotAccounts(ctx, p.cfg.Quote)
	if err != nil || len(balances) == 0 {
		p.logger.Warn("quote balance lookup failed", errAttr(err))
		return quotes.ZeroQuote
	}
	amount := quotes.NewQuote(balances[0].Available, p.cfg.Quote)
	p.logger.Info("wallet quote balance", slog.String("amount", amount.String()))
	return amount
}

// TokenPosition is the available balance of the pair's base asset.
func (p *Proxy) TokenPosition(ctx context.Context, pair *asset.Pair) quotes.Quantity {
	balances, err := p.api.ListSpotAccounts(ctx, pair.Base)
	if err != nil || len(balances) == 0 {
		p.logCurrencyWarn(pair, "token balance lookup failed", err)
		return quotes.ZeroQuantity
	}
	return quotes.NewQuantity(balances[0].Available, pair.Base)
}

// MainPosition is the most valuable holding in the wallet, valued in quote
// currency. Forbidden currencies (the quote itself, stablecoins parked on
// purpose) are skipped.
type MainPosition struct {
	Currency  string
	Available quotes.Quantity
	Value     quotes.Quote
}

func (p *Proxy) FindMainPosition(ctx context.Context, forbidden []string) MainPosition {
	skip := make(map[string]struct{}, len(forbidden))
	for _, currency := range forbidden {
		skip[currency] = struct{}{}
	}

	balances, err := p.api.ListSpotAccounts(ctx, "")
	if err != nil {
		p.logger.Warn("spot accounts lookup failed", errAttr(err))
		return MainPosition{Value: quotes.ZeroQuote}
	}

	best := MainPosition{Value: quotes.ZeroQuote}
	for _, balance := range balances {
		if _, bad := skip[balance.Currency]; bad {
			continue
		}
		pair := asset.NormalizePair(balance.Currency, false, p.cfg.Quote, "")
		if pair == nil {
			continue
		}
		price := p.TokenPrice(ctx, pair)
		if !price.GreaterThan(quotes.ZeroPrice) {
			continue
		}
		available := quotes.NewQuantity(balance.Available, balance.Currency)
		value := available.MulPrice(price)
		if value.GreaterThan(best.Value) {
			best = MainPosition{Currency: balance.Currency, Available: available, Value: value}
		}
	}
	if best.Currency != "" {
		p.logger.Info("largest holding",
			slog.String("currency", best.Currency),
			slog.String("value", best.Value.String()))
	}
	return best
}

// QuoteToTokenQuantity converts a quote-currency budget into a base-asset
// quantity at the given price, truncated to the pair's amount precision.
func (p *Proxy) QuoteToTokenQuantity(pair *asset.Pair, budget quotes.Quote, price quotes.Price) quotes.Quantity {
	if price.IsZero() {
		return quotes.ZeroQuantity
	}
	raw := budget.Amount.Div(price.Amount)
	quantity := quotes.NewQuantity(raw, pair.Base)
	return quantity.ManageAmountPrecision(p.BaseQuantityPrecision(pair))
}

func (p *Proxy) logCurrencyWarn(pair *asset.Pair, message string, err error) {
	p.logger.Warn(message, slog.String("pair", pair.ID), errAttr(err))
}

func errAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "empty response")
	}
	return slog.String("error", err.Error())
}
