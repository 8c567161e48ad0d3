package gateio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
	"github.com/venantvr/gateio-rsi-bot/internal/entity"
	"github.com/venantvr/gateio-rsi-bot/internal/quotes"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

// placeLimitOrder submits a gtc limit order and returns the exchange's view
// of it, or nil when the submission fails.
func (p *Proxy) placeLimitOrder(ctx context.Context, pair *asset.Pair, side exchange.OrderSide, amount quotes.Quantity, price quotes.Price) *exchange.Order {
	order, err := p.api.CreateOrder(ctx, exchange.Order{
		CurrencyPair: pair.ID,
		Side:         side,
		Type:         exchange.OrderTypeLimit,
		TimeInForce:  exchange.TimeInForceGTC,
		Amount:       amount.Amount,
		Price:        price.Amount,
	})
	if err != nil {
		p.logCurrencyWarn(pair, "limit order rejected", err)
		return nil
	}
	p.logger.Info("limit order created",
		slog.String("pair", pair.ID),
		slog.String("side", string(side)),
		slog.String("order_id", order.ID),
		slog.String("amount", amount.String()),
		slog.String("price", price.String()))
	return order
}

// PlaceConditionalSellOrder parks a limit sell at the target price. The
// quantity is truncated to the pair's amount precision first.
func (p *Proxy) PlaceConditionalSellOrder(ctx context.Context, pair *asset.Pair, quantity quotes.Quantity, price quotes.Price) *exchange.Order {
	accepted := quantity.ManageAmountPrecision(p.BaseQuantityPrecision(pair))
	if !accepted.GreaterThan(quotes.ZeroQuantity) {
		p.logCurrencyWarn(pair, "conditional sell skipped, no sellable quantity", nil)
		return nil
	}
	return p.placeLimitOrder(ctx, pair, exchange.OrderSideSell, accepted, price)
}

// PlaceConditionalBuyOrder parks a limit buy at the target price, sized from
// the free quote balance split across the remaining slots.
func (p *Proxy) PlaceConditionalBuyOrder(ctx context.Context, pair *asset.Pair, price quotes.Price, freeSlots int) *exchange.Order {
	if !pair.WithinPriceBounds(price) {
		p.logCurrencyWarn(pair, "conditional buy skipped, price outside pair bounds", nil)
		return nil
	}
	balance := p.QuotePosition(ctx)
	if !balance.GreaterThan(quotes.ZeroQuote) {
		p.logCurrencyWarn(pair, "conditional buy skipped, no quote balance", nil)
		return nil
	}
	budget := balance.SlotAmount(freeSlots).ManageAmountPrecision(p.QuotePrecision(pair))
	quantity := p.QuoteToTokenQuantity(pair, budget, price)
	if !quantity.GreaterThan(quotes.ZeroQuantity) {
		p.logCurrencyWarn(pair, "conditional buy skipped, budget below precision", nil)
		return nil
	}
	return p.placeLimitOrder(ctx, pair, exchange.OrderSideBuy, quantity, price)
}

// CreateMarketSellOrder liquidates the given base-asset balance at market.
// tokenPrice sizes the minimum-value check; pass ZeroPrice to look it up.
// In debug mode the order never leaves the process: a closed order is
// synthesized at the current estimated sell price.
func (p *Proxy) CreateMarketSellOrder(ctx context.Context, pair *asset.Pair, tokenBalance quotes.Quantity, tokenPrice quotes.Price) *exchange.Order {
	if !tokenBalance.GreaterThan(quotes.ZeroQuantity) && !p.cfg.Debug {
		p.logCurrencyWarn(pair, "market sell skipped, no token balance", nil)
		return nil
	}
	if tokenPrice.IsZero() {
		tokenPrice = p.TokenPrice(ctx, pair)
	}
	if !tokenPrice.GreaterThan(quotes.ZeroPrice) {
		p.logCurrencyWarn(pair, "market sell skipped, no price", nil)
		return nil
	}

	accepted := tokenBalance.ManageAmountPrecision(p.BaseQuantityPrecision(pair))
	orderValue := accepted.MulPrice(tokenPrice)
	if (!accepted.GreaterThan(quotes.ZeroQuantity) || !orderValue.GreaterThanOrEqual(p.TokenMinQuoteAmount(pair))) && !p.cfg.Debug {
		p.logCurrencyWarn(pair, "market sell skipped, below exchange minimum", nil)
		return nil
	}

	order := exchange.Order{
		CurrencyPair: pair.ID,
		Side:         exchange.OrderSideSell,
		Type:         exchange.OrderTypeMarket,
		TimeInForce:  exchange.TimeInForceIOC,
		Amount:       accepted.Amount,
	}
	if p.cfg.Debug {
		return p.simulateMarketOrder(ctx, pair, order)
	}
	return p.submitMarketOrder(ctx, pair, order)
}

// CreateMarketBuyOrder spends one slot's share of the quote balance at
// market. The spend is truncated to the pair's quote precision. In debug
// mode a closed order is synthesized at the current estimated buy price.
func (p *Proxy) CreateMarketBuyOrder(ctx context.Context, pair *asset.Pair, quoteBalance quotes.Quote, freeSlots int) *exchange.Order {
	if !quoteBalance.GreaterThan(quotes.ZeroQuote) && !p.cfg.Debug {
		p.logCurrencyWarn(pair, "market buy skipped, no quote balance", nil)
		return nil
	}
	spend := quoteBalance.SlotAmount(freeSlots).ManageAmountPrecision(p.QuotePrecision(pair))

	// Market buys are denominated in quote currency on the wire.
	order := exchange.Order{
		CurrencyPair: pair.ID,
		Side:         exchange.OrderSideBuy,
		Type:         exchange.OrderTypeMarket,
		TimeInForce:  exchange.TimeInForceIOC,
		Amount:       spend.Amount,
	}
	if p.cfg.Debug {
		return p.simulateMarketOrder(ctx, pair, order)
	}
	return p.submitMarketOrder(ctx, pair, order)
}

func (p *Proxy) submitMarketOrder(ctx context.Context, pair *asset.Pair, order exchange.Order) *exchange.Order {
	created, err := p.api.CreateOrder(ctx, order)
	if err != nil {
		p.logCurrencyWarn(pair, "market order rejected", err)
		return nil
	}
	final, status := p.WaitForOrder(ctx, pair, created.ID)
	p.logger.Info("market order settled",
		slog.String("pair", pair.ID),
		slog.String("side", string(order.Side)),
		slog.String("order_id", created.ID),
		slog.String("status", string(status)))
	if final == nil {
		return created
	}
	return final
}

// simulateMarketOrder builds the order a real submission would have
// produced, filled at the order book's estimated execution price.
func (p *Proxy) simulateMarketOrder(ctx context.Context, pair *asset.Pair, order exchange.Order) *exchange.Order {
	var fill quotes.Price
	if order.Side == exchange.OrderSideBuy {
		fill = p.BuyPrice(ctx, pair)
	} else {
		fill = p.SellPrice(ctx, pair)
	}
	order.ID = "debug-" + uuid.NewString()
	order.Status = exchange.OrderStatusClosed
	order.Price = fill.Amount
	order.CreatedAt = time.Now().UTC()
	p.logger.Info("market order simulated, emission disabled",
		slog.String("pair", pair.ID),
		slog.String("side", string(order.Side)),
		slog.String("fill", fill.String()))
	return &order
}

// WaitForOrder polls the order until it closes or the wait budget runs out.
// It always polls at least once, so a zero budget degrades to a single
// status check. An exhausted budget is not an error; the last observed
// order and status are returned as-is.
func (p *Proxy) WaitForOrder(ctx context.Context, pair *asset.Pair, orderID string) (*exchange.Order, exchange.OrderStatus) {
	deadline := time.Now().Add(p.cfg.MaxWait)
	var last *exchange.Order
	var status exchange.OrderStatus
	for {
		order, err := p.api.GetOrder(ctx, orderID, pair.ID)
		if err != nil {
			p.logCurrencyWarn(pair, "order poll failed", err)
		} else {
			last = order
			status = order.Status
			if status.IsClosed() {
				return last, status
			}
		}
		if !time.Now().Add(p.cfg.SleepInterval).Before(deadline) {
			return last, status
		}
		select {
		case <-ctx.Done():
			return last, status
		case <-time.After(p.cfg.SleepInterval):
		}
	}
}

// PollOrder is a single status check with no waiting.
func (p *Proxy) PollOrder(ctx context.Context, pair *asset.Pair, orderID string) (*exchange.Order, exchange.OrderStatus, error) {
	order, err := p.api.GetOrder(ctx, orderID, pair.ID)
	if err != nil {
		return nil, "", fmt.Errorf("gateio: poll order %s: %w", orderID, err)
	}
	return order, order.Status, nil
}

// CancelOrder cancels fire-and-forget: a failure is logged and swallowed,
// since the order may already be gone.
func (p *Proxy) CancelOrder(ctx context.Context, pair *asset.Pair, orderID string) {
	if _, err := p.api.CancelOrder(ctx, orderID, pair.ID); err != nil {
		p.logCurrencyWarn(pair, "order cancel failed", err)
		return
	}
	p.logger.Info("order cancelled", slog.String("pair", pair.ID), slog.String("order_id", orderID))
}

// Buy runs the full market-buy flow: check the quote balance, spend one
// slot's share, record the trade under a fresh thread id and notify. It
// returns the fill price and the thread id tying the eventual sell back to
// this buy.
func (p *Proxy) Buy(ctx context.Context, pair *asset.Pair, freeSlots int, advisor string) (bool, quotes.Price, string) {
	balance := p.QuotePosition(ctx)
	if !balance.GreaterThan(quotes.ZeroQuote) && !p.cfg.Debug {
		p.logCurrencyWarn(pair, "buy skipped, no quote balance", nil)
		return false, quotes.ZeroPrice, ""
	}

	order := p.CreateMarketBuyOrder(ctx, pair, balance, freeSlots)
	if order == nil {
		p.notifyText(ctx, pair, "buy failed")
		return false, quotes.ZeroPrice, ""
	}

	price := quotes.NewPrice(order.Price, p.cfg.Quote)
	thread := uuid.NewString()
	p.recordTrade(ctx, pair, entity.TradeActionBuy, price, thread, advisor)
	p.notifyText(ctx, pair, fmt.Sprintf("bought at %s (%s)", price, advisor))
	return true, price, thread
}

// Sell runs the full market-sell flow for the position opened under thread:
// liquidate the base-asset balance, record the closing trade on the same
// thread and notify.
func (p *Proxy) Sell(ctx context.Context, pair *asset.Pair, thread string) (bool, quotes.Price) {
	position := p.TokenPosition(ctx, pair)
	if !position.GreaterThan(quotes.ZeroQuantity) && !p.cfg.Debug {
		p.logCurrencyWarn(pair, "sell skipped, no position", nil)
		return false, quotes.ZeroPrice
	}

	order := p.CreateMarketSellOrder(ctx, pair, position, quotes.ZeroPrice)
	if order == nil {
		p.notifyText(ctx, pair, "sell failed")
		return false, quotes.ZeroPrice
	}

	price := quotes.NewPrice(order.Price, p.cfg.Quote)
	p.recordTrade(ctx, pair, entity.TradeActionSell, price, thread, "position closed")
	p.notifyText(ctx, pair, fmt.Sprintf("sold at %s", price))
	return true, price
}

// recordTrade appends to the ledger when one is wired. Persistence failures
// never abort a trade that already executed; they are logged and dropped.
func (p *Proxy) recordTrade(ctx context.Context, pair *asset.Pair, action string, price quotes.Price, thread, detail string) {
	if p.ledger == nil {
		return
	}
	trade := entity.Trade{
		Pair:   pair.ID,
		Action: action,
		Price:  price.Amount.String(),
		Date:   time.Now().UTC(),
		Thread: thread,
		Detail: detail,
	}
	if err := p.ledger.Create(ctx, trade); err != nil {
		p.logCurrencyWarn(pair, "trade not recorded", err)
	}
}

func (p *Proxy) notifyText(ctx context.Context, pair *asset.Pair, message string) {
	if err := p.notifier.SendText(ctx, pair.Base, message); err != nil {
		p.logCurrencyWarn(pair, "notification failed", err)
	}
}
