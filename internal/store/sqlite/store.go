package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skiff/internal/store"
	"skiff/internal/store/model"
)

// SqliteStore 基于 gorm + SQLite 实现 store.Store。
type SqliteStore struct {
	db *gorm.DB
}

var _ store.Store = (*SqliteStore)(nil)

func NewSqliteStore(path string) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newSqliteStore(db)
}

func NewSqliteStoreFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db 不能为空")
	}
	return newSqliteStore(db)
}

func newSqliteStore(db *gorm.DB) (*SqliteStore, error) {
	if err := db.AutoMigrate(&model.TradeModel{}, &model.StatusModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStore) SaveTrade(ctx context.Context, trade *model.TradeModel) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return s.db.WithContext(ctx).Create(trade).Error
}

func (s *SqliteStore) SaveStatus(ctx context.Context, status *model.StatusModel) error {
	if status == nil {
		return errors.New("status cannot be nil")
	}
	return s.db.WithContext(ctx).Create(status).Error
}

// RecentTrades 返回最近的成交记录，从新到旧。
func (s *SqliteStore) RecentTrades(ctx context.Context, limit int) ([]model.TradeModel, error) {
	if limit <= 0 {
		limit = 10
	}
	var trades []model.TradeModel
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// LastBuyTrade 返回最近一笔 BUY，成本兜底链路用。
func (s *SqliteStore) LastBuyTrade(ctx context.Context) (*model.TradeModel, error) {
	var trade model.TradeModel
	err := s.db.WithContext(ctx).
		Where("action = ?", "BUY").
		Order("timestamp DESC, id DESC").
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// RecentDecisions 从状态表中还原最近的决策，从新到旧。
// 仅返回 Decision 列为 JSON 对象的行，旧版纯文本行跳过。
func (s *SqliteStore) RecentDecisions(ctx context.Context, limit int) ([]store.DecisionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []model.StatusModel
	err := s.db.WithContext(ctx).
		Where("decision IS NOT NULL AND decision != ''").
		Order("timestamp DESC, id DESC").
		Limit(limit * 2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]store.DecisionRecord, 0, limit)
	for _, row := range rows {
		raw := strings.TrimSpace(string(row.Decision))
		if !strings.HasPrefix(raw, "{") || !gjson.Valid(raw) {
			continue
		}
		parsed := gjson.Parse(raw)
		action := parsed.Get("action").String()
		if action == "" {
			continue
		}
		out = append(out, store.DecisionRecord{
			Price:      row.Price,
			Action:     action,
			Confidence: int(parsed.Get("confidence").Int()),
			Reason:     parsed.Get("reason").String(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// LatestStatus 返回最新状态，优先取 Decision 为 JSON 的行。
func (s *SqliteStore) LatestStatus(ctx context.Context) (*model.StatusModel, error) {
	var status model.StatusModel
	err := s.db.WithContext(ctx).
		Where("decision IS NOT NULL AND TRIM(decision) LIKE '{%'").
		Order("timestamp DESC, id DESC").
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).
			Order("timestamp DESC, id DESC").
			First(&status).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Performance 统计最近 N 笔 SELL 的盈亏，用于提示词中的历史反馈。
func (s *SqliteStore) Performance(ctx context.Context, limit int) (store.Performance, error) {
	if limit <= 0 {
		limit = 20
	}
	var sells []model.TradeModel
	err := s.db.WithContext(ctx).
		Where("action = ?", "SELL").
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&sells).Error
	if err != nil {
		return store.Performance{}, err
	}
	perf := store.Performance{TotalTrades: len(sells)}
	if len(sells) == 0 {
		return perf, nil
	}
	for _, t := range sells {
		if t.Profit > 0 {
			perf.WinCount++
		} else {
			perf.LossCount++
		}
		perf.TotalProfit += t.Profit
	}
	perf.WinRate = round1(float64(perf.WinCount) / float64(perf.TotalTrades) * 100)
	perf.AvgProfit = round2(perf.TotalProfit / float64(perf.TotalTrades))
	perf.TotalProfit = round2(perf.TotalProfit)
	return perf, nil
}

// Statistics 返回全量交易统计。平均盈亏仅按 SELL 计算。
func (s *SqliteStore) Statistics(ctx context.Context) (store.Statistics, error) {
	var stats store.Statistics
	var total, buys, sells int64
	if err := s.db.WithContext(ctx).Model(&model.TradeModel{}).Count(&total).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&model.TradeModel{}).Where("action = ?", "BUY").Count(&buys).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&model.TradeModel{}).Where("action = ?", "SELL").Count(&sells).Error; err != nil {
		return stats, err
	}
	var totalProfit float64
	row := s.db.WithContext(ctx).Model(&model.TradeModel{}).Select("COALESCE(SUM(profit), 0)").Row()
	if err := row.Scan(&totalProfit); err != nil {
		return stats, err
	}
	stats.TotalTrades = int(total)
	stats.BuyCount = int(buys)
	stats.SellCount = int(sells)
	stats.TotalProfit = round2(totalProfit)
	if sells > 0 {
		stats.AvgProfit = round2(totalProfit / float64(sells))
		var best, worst float64
		row := s.db.WithContext(ctx).Model(&model.TradeModel{}).
			Where("action = ?", "SELL").
			Select("COALESCE(MAX(profit), 0), COALESCE(MIN(profit), 0)").Row()
		if err := row.Scan(&best, &worst); err != nil {
			return stats, err
		}
		stats.BestProfit = round2(best)
		stats.WorstProfit = round2(worst)
	}
	return stats, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
