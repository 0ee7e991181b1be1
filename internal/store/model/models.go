package model

import (
	"time"

	"gorm.io/datatypes"
)

// TradeModel 对应 trades 表，记录每笔已执行的成交。
type TradeModel struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
	Action       string    `gorm:"column:action;not null" json:"action"`
	Price        float64   `gorm:"column:price;not null" json:"price"`
	Amount       float64   `gorm:"column:amount;not null" json:"amount"`
	Reason       string    `gorm:"column:reason" json:"reason"`
	Profit       float64   `gorm:"column:profit;default:0" json:"profit"`
	BalanceUSDT  float64   `gorm:"column:balance_usdt" json:"balance_usdt"`
	BalanceAsset float64   `gorm:"column:balance_asset" json:"balance_asset"`
}

func (TradeModel) TableName() string { return "trades" }

// StatusModel 对应 status 表，每轮决策后记录一次系统快照。
// Decision 为结构化 JSON，旧版本可能写入纯文本，读取时需兼容。
type StatusModel struct {
	ID           int64          `gorm:"column:id;primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
	Price        float64        `gorm:"column:price;not null" json:"price"`
	BalanceUSDT  float64        `gorm:"column:balance_usdt" json:"balance_usdt"`
	BalanceAsset float64        `gorm:"column:balance_asset" json:"balance_asset"`
	TotalValue   float64        `gorm:"column:total_value" json:"total_value"`
	Decision     datatypes.JSON `gorm:"column:decision" json:"decision"`
	Reasoning    string         `gorm:"column:reasoning" json:"reasoning"`
	TraceID      string         `gorm:"column:trace_id;index" json:"trace_id"`
}

func (StatusModel) TableName() string { return "status" }
