package repo

import (
	"context"

	"github.com/venantvr/gateio-rsi-bot/internal/entity"
	"gorm.io/gorm"
)

// OpenTrade is a BUY row with no matching SELL on the same thread.
type OpenTrade struct {
	Pair   string
	Price  string
	Thread string
}

type TradeRepo interface {
	Create(ctx context.Context, trade entity.Trade) error
	// FetchOpenTrades reconstructs in-flight positions from the ledger,
	// keyed by pair symbol. It is an anti-join recomputed on every call;
	// fine while trade volume stays low.
	FetchOpenTrades(ctx context.Context) (map[string]OpenTrade, error)
	FindByThread(ctx context.Context, thread string) ([]entity.Trade, error)
}

type tradeRepo struct {
	db *gorm.DB
}

func NewTradeRepo(db *gorm.DB) TradeRepo {
	return &tradeRepo{
		db: db,
	}
}

func (r *tradeRepo) Create(ctx context.Context, trade entity.Trade) error {
	return r.db.WithContext(ctx).Create(&trade).Error
}

func (r *tradeRepo) FetchOpenTrades(ctx context.Context) (map[string]OpenTrade, error) {
	var rows []OpenTrade
	err := r.db.WithContext(ctx).
		Table("trades AS buy").
		Select("buy.pair AS pair, buy.price AS price, buy.thread AS thread").
		Joins("LEFT JOIN trades AS sell ON sell.thread = buy.thread AND sell.action = ?", entity.TradeActionSell).
		Where("buy.action = ? AND sell.id IS NULL", entity.TradeActionBuy).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	open := make(map[string]OpenTrade, len(rows))
	for _, row := range rows {
		open[row.Pair] = row
	}
	return open, nil
}

func (r *tradeRepo) FindByThread(ctx context.Context, thread string) ([]entity.Trade, error) {
	var trades []entity.Trade
	err := r.db.WithContext(ctx).Where("thread = ?", thread).Order("id").Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
