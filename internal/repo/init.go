package repo

import (
	"github.com/venantvr/gateio-rsi-bot/internal/entity"
	"gorm.io/gorm"
)

// InitTables creates the ledger tables and adds any column introduced since
// the database file was first written. AutoMigrate only ever adds; existing
// rows are never rewritten.
func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Trade{}, &entity.IndicatorSnapshot{})
}
