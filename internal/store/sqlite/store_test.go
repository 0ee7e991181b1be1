package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"skiff/internal/store/model"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s, err := NewSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecentTrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 50000, Amount: 0.002, Reason: "突破"}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 51000, Amount: 0.002, Profit: 2}))

	trades, err := s.RecentTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// 从新到旧。
	assert.Equal(t, "SELL", trades[0].Action)
	assert.Equal(t, "BUY", trades[1].Action)
}

func TestLastBuyTrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.LastBuyTrade(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 48000, Amount: 0.001}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 52000, Amount: 0.001}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 50000, Amount: 0.002}))

	got, err = s.LastBuyTrade(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 50000.0, got.Price)
}

func TestRecentDecisionsSkipsLegacyText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveStatus(ctx, &model.StatusModel{
		Price:    49000,
		Decision: datatypes.JSON(`观望`),
	}))
	require.NoError(t, s.SaveStatus(ctx, &model.StatusModel{
		Price:    50000,
		Decision: datatypes.JSON(`{"action":"BUY","confidence":80,"reason":"趋势向上"}`),
	}))

	decisions, err := s.RecentDecisions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "BUY", decisions[0].Action)
	assert.Equal(t, 80, decisions[0].Confidence)
	assert.Equal(t, 50000.0, decisions[0].Price)
}

func TestLatestStatusPrefersJSON(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.LatestStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveStatus(ctx, &model.StatusModel{
		Price:    50000,
		Decision: datatypes.JSON(`{"action":"HOLD","confidence":60}`),
	}))
	require.NoError(t, s.SaveStatus(ctx, &model.StatusModel{
		Price:    51000,
		Decision: datatypes.JSON(`决策失败`),
	}))

	got, err = s.LatestStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	// 最新一条是纯文本，但应优先返回 JSON 行。
	assert.Equal(t, 50000.0, got.Price)
}

func TestPerformanceOnlyCountsSells(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 50000, Amount: 0.01}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 51000, Amount: 0.01, Profit: 10}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 49000, Amount: 0.01, Profit: -5}))

	perf, err := s.Performance(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, perf.TotalTrades)
	assert.Equal(t, 1, perf.WinCount)
	assert.Equal(t, 1, perf.LossCount)
	assert.Equal(t, 50.0, perf.WinRate)
	assert.Equal(t, 5.0, perf.TotalProfit)
	assert.Equal(t, 2.5, perf.AvgProfit)
}

func TestPerformanceEmpty(t *testing.T) {
	s := newTestStore(t)
	perf, err := s.Performance(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 0, perf.TotalTrades)
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 50000, Amount: 0.01}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "BUY", Price: 49000, Amount: 0.01}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 51000, Amount: 0.02, Profit: 30}))
	require.NoError(t, s.SaveTrade(ctx, &model.TradeModel{Action: "SELL", Price: 48000, Amount: 0.01, Profit: -12}))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.BuyCount)
	assert.Equal(t, 2, stats.SellCount)
	assert.Equal(t, 18.0, stats.TotalProfit)
	assert.Equal(t, 9.0, stats.AvgProfit)
	assert.Equal(t, 30.0, stats.BestProfit)
	assert.Equal(t, -12.0, stats.WorstProfit)
}
