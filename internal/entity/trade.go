package entity

import (
	"time"
)

// Trade is one append-only ledger row. A buy and its matching sell share a
// Thread identifier; a BUY row without a SELL row on the same thread is an
// open position.
type Trade struct {
	Id     int64  `gorm:"primaryKey;autoIncrement"`
	Pair   string `gorm:"index"`
	Action string `gorm:"index"` // BUY / SELL
	Price  string
	Date   time.Time `gorm:"index"`
	Thread string    `gorm:"index"`
	Detail string
}

func (Trade) TableName() string {
	return "trades"
}

const (
	TradeActionBuy  = "BUY"
	TradeActionSell = "SELL"
)
