package repo

import (
	"context"

	"github.com/venantvr/gateio-rsi-bot/internal/entity"
	"gorm.io/gorm"
)

type IndicatorRepo interface {
	Create(ctx context.Context, snapshot entity.IndicatorSnapshot) error
	FindByPair(ctx context.Context, pair string) ([]entity.IndicatorSnapshot, error)
}

type indicatorRepo struct {
	db *gorm.DB
}

func NewIndicatorRepo(db *gorm.DB) IndicatorRepo {
	return &indicatorRepo{
		db: db,
	}
}

func (r *indicatorRepo) Create(ctx context.Context, snapshot entity.IndicatorSnapshot) error {
	return r.db.WithContext(ctx).Create(&snapshot).Error
}

func (r *indicatorRepo) FindByPair(ctx context.Context, pair string) ([]entity.IndicatorSnapshot, error) {
	var snapshots []entity.IndicatorSnapshot
	err := r.db.WithContext(ctx).Where("pair = ?", pair).Order("id").Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
