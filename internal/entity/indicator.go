package entity

import (
	"time"
)

// IndicatorSnapshot records the boolean strategy conditions observed for a
// pair at one point in time. Condition slots beyond the ones a strategy uses
// stay zero; new slots are added by migration, never by rewriting old rows.
type IndicatorSnapshot struct {
	Id         int64  `gorm:"primaryKey;autoIncrement"`
	Pair       string `gorm:"index"`
	Timeframe  string
	SequenceId int64
	Date       time.Time
	Price      string
	Condition1  int `gorm:"column:condition_1"`
	Condition2  int `gorm:"column:condition_2"`
	Condition3  int `gorm:"column:condition_3"`
	Condition4  int `gorm:"column:condition_4"`
	Condition5  int `gorm:"column:condition_5"`
	Condition6  int `gorm:"column:condition_6"`
	Condition7  int `gorm:"column:condition_7"`
	Condition8  int `gorm:"column:condition_8"`
	Condition9  int `gorm:"column:condition_9"`
	Condition10 int `gorm:"column:condition_10"`
}

func (IndicatorSnapshot) TableName() string {
	return "indicators"
}
