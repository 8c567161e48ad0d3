package gateio

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
	"github.com/venantvr/gateio-rsi-bot/internal/quotes"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

// bestPriceDepth is how many order-book levels the buy/sell price estimate
// averages over.
const bestPriceDepth = 5

// FetchCandles returns the most recent numberOfCandles candles in ascending
// timestamp order, honoring the configured closed-only policy. Any API
// failure yields an empty slice; indicator code treats that as "no data yet".
func (p *Proxy) FetchCandles(ctx context.Context, pair *asset.Pair, interval exchange.Interval, numberOfCandles int) []exchange.Candle {
	return p.fetchCandles(ctx, pair, interval, numberOfCandles, p.cfg.ClosedOnly)
}

// FetchCandlesFilter is FetchCandles with an explicit closed-only override.
func (p *Proxy) FetchCandlesFilter(ctx context.Context, pair *asset.Pair, interval exchange.Interval, numberOfCandles int, closedOnly bool) []exchange.Candle {
	return p.fetchCandles(ctx, pair, interval, numberOfCandles, closedOnly)
}

func (p *Proxy) fetchCandles(ctx context.Context, pair *asset.Pair, interval exchange.Interval, numberOfCandles int, closedOnly bool) []exchange.Candle {
	var rows []exchange.Candle

	// Pages walk backward in time: each request ends where the previous
	// page began. The exchange caps a single page at the configured limit.
	var from int64
	for len(rows) < numberOfCandles {
		page, err := p.api.ListCandlesticks(ctx, exchange.CandlesticksReq{
			CurrencyPair: pair.ID,
			Interval:     interval,
			Limit:        p.cfg.PageLimit,
			From:         from,
		})
		if err != nil {
			p.logCurrencyWarn(pair, "candlestick fetch failed", err)
			return nil
		}
		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)
		from = page[0].Timestamp.Unix() - int64(p.cfg.PageLimit)*interval.Seconds()
		if len(page) < p.cfg.PageLimit {
			// The pair's history starts inside this page.
			break
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	if closedOnly {
		rows = lo.Filter(rows, func(c exchange.Candle, _ int) bool {
			return c.Closed
		})
	}
	if len(rows) > numberOfCandles {
		rows = rows[len(rows)-numberOfCandles:]
	}

	if numberOfCandles == p.cfg.MaxCandles && len(rows) > 0 {
		p.backupRawCandles(pair, interval, rows)
	}
	return rows
}

// backupRawCandles dumps the deep-history fetch to the pair's data directory
// as CSV, so a restart can replay indicators without hammering the API.
func (p *Proxy) backupRawCandles(pair *asset.Pair, interval exchange.Interval, rows []exchange.Candle) {
	path := pair.RawCandleBackupPath(interval)
	file, err := os.Create(path)
	if err != nil {
		p.logger.Warn("candle backup failed",
			slog.String("pair", pair.ID),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	_ = writer.Write([]string{"timestamp", "volume", "close", "high", "low", "open", "amount", "closed"})
	for _, candle := range rows {
		_ = writer.Write([]string{
			strconv.FormatInt(candle.Timestamp.Unix(), 10),
			candle.Volume.String(),
			candle.Close.String(),
			candle.High.String(),
			candle.Low.String(),
			candle.Open.String(),
			candle.BaseVolume.String(),
			strconv.FormatBool(candle.Closed),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		p.logger.Warn("candle backup failed",
			slog.String("pair", pair.ID),
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// BuyPrice estimates what a market buy would pay: the average of the best
// ask levels, rounded to the pair's quote precision. ZeroPrice on failure.
func (p *Proxy) BuyPrice(ctx context.Context, pair *asset.Pair) quotes.Price {
	book := p.orderBook(ctx, pair)
	if book == nil {
		return quotes.ZeroPrice
	}
	return p.averageLevelPrice(pair, book.Asks)
}

// SellPrice estimates what a market sell would receive: the average of the
// best bid levels, rounded to the pair's quote precision. ZeroPrice on
// failure.
func (p *Proxy) SellPrice(ctx context.Context, pair *asset.Pair) quotes.Price {
	book := p.orderBook(ctx, pair)
	if book == nil {
		return quotes.ZeroPrice
	}
	return p.averageLevelPrice(pair, book.Bids)
}

func (p *Proxy) orderBook(ctx context.Context, pair *asset.Pair) *exchange.OrderBook {
	book, err := p.api.ListOrderBook(ctx, pair.ID, bestPriceDepth)
	if err != nil {
		p.logCurrencyWarn(pair, "order book fetch failed", err)
		return nil
	}
	return book
}

func (p *Proxy) averageLevelPrice(pair *asset.Pair, levels []exchange.OrderBookLevel) quotes.Price {
	if len(levels) > bestPriceDepth {
		levels = levels[:bestPriceDepth]
	}
	if len(levels) == 0 {
		return quotes.ZeroPrice
	}
	sum := decimal.Zero
	for _, level := range levels {
		sum = sum.Add(level.Price)
	}
	average := sum.Div(decimal.NewFromInt(int64(len(levels)))).Round(p.QuotePrecision(pair))
	return quotes.NewPrice(average, pair.Quote)
}
