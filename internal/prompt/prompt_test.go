package prompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/logger"
	"skiff/internal/market"
	"skiff/internal/position"
)

func TestBuildUserBasics(t *testing.T) {
	text := BuildUser(Inputs{
		Account: Account{
			Price:          50000,
			AvailableUSDT:  1234.56,
			AvailableAsset: 0.5,
			BaseAsset:      "BTC",
		},
		MinUnit: 0.00001,
	})

	assert.Contains(t, text, "价格: $50,000.00")
	assert.Contains(t, text, "0.50000000 BTC")
	assert.Contains(t, text, "$1234 USDT")
	assert.Contains(t, text, "可卖: 0.50000000 BTC")
	// 无持仓时不出现成本行。
	assert.NotContains(t, text, "持仓")
}

func TestBuildUserPositionLine(t *testing.T) {
	text := BuildUser(Inputs{
		Account: Account{Price: 55000, AvailableUSDT: 100, AvailableAsset: 0.1, BaseAsset: "BTC"},
		Position: position.Result{
			HasPosition: true,
			Amount:      0.1,
			AvgPrice:    50000,
		},
		MinUnit: 0.00001,
	})

	assert.Contains(t, text, "持仓: 成本$50,000.00 (+10.0%)")
}

func TestBuildUserDustPositionOmitted(t *testing.T) {
	text := BuildUser(Inputs{
		Account: Account{Price: 55000, AvailableUSDT: 100, AvailableAsset: 0.000001, BaseAsset: "BTC"},
		Position: position.Result{
			HasPosition: true,
			Amount:      0.000001,
			AvgPrice:    50000,
		},
		MinUnit: 0.00001,
	})
	assert.NotContains(t, text, "持仓")
}

func TestBuildUserKlineSection(t *testing.T) {
	snap := market.Snapshot{
		Symbol: "BTC-USDT",
		Price:  101,
		Timeframes: []market.Timeframe{
			{Interval: "15m", Candles: market.Candles{
				{Open: 100, High: 102, Low: 99, Close: 101, Volume: 12.34},
			}},
		},
	}
	text := BuildUser(Inputs{
		Account:  Account{Price: 101, AvailableUSDT: 100, BaseAsset: "BTC"},
		Snapshot: snap,
	})
	assert.Contains(t, text, "K线数据（从旧到新排序）:")
	assert.Contains(t, text, "15m周期（共1根，最新在最后）:")
}

func TestBuildUserPerformanceThreshold(t *testing.T) {
	in := Inputs{
		Account:     Account{Price: 101, AvailableUSDT: 100, BaseAsset: "BTC"},
		Performance: &Performance{TotalTrades: 4, WinRate: 50, TotalProfit: 10},
	}
	assert.NotContains(t, BuildUser(in), "最近4笔")

	in.Performance.TotalTrades = 5
	assert.Contains(t, BuildUser(in), "最近5笔: 胜率50%")
}

func TestBuildMessagesHistoryOrder(t *testing.T) {
	// history 从新到旧传入。
	history := []DecisionBrief{
		{Price: 51000, Action: "HOLD", Confidence: 60, Reason: "newest"},
		{Price: 50000, Action: "BUY", Confidence: 80, Reason: "oldest"},
	}
	msgs := BuildMessages("sys", "now", history)

	require.Len(t, msgs, 6)
	assert.Equal(t, "system", msgs[0].Role)
	// 最旧的决策先出现。
	assert.Contains(t, msgs[1].Content, "50,000")
	assert.Contains(t, msgs[2].Content, "BUY (信心80%)")
	assert.Contains(t, msgs[4].Content, "HOLD (信心60%)")
	assert.Equal(t, "now", msgs[5].Content)
}

func TestBuildMessagesTruncatesReason(t *testing.T) {
	long := make([]rune, 150)
	for i := range long {
		long[i] = '理'
	}
	msgs := BuildMessages("sys", "now", []DecisionBrief{{Action: "HOLD", Reason: string(long)}})
	require.Len(t, msgs, 4)
	assert.LessOrEqual(t, len([]rune(msgs[2].Content)), 120)
}

func TestSystemLoaderDefault(t *testing.T) {
	l := NewSystemLoader(t.TempDir(), "missing.md", logger.Nop())
	assert.Equal(t, DefaultSystem, l.System())
}

func TestSystemLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.md"), []byte("custom prompt\n"), 0o644))
	l := NewSystemLoader(dir, "system.md", logger.Nop())
	assert.Equal(t, "custom prompt", l.System())
}

func TestSystemLoaderHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	l := NewSystemLoader(dir, "system.md", logger.Nop())
	require.NoError(t, l.Watch())
	defer l.Close()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.Eventually(t, func() bool {
		return l.System() == "v2"
	}, 3*time.Second, 50*time.Millisecond)
}
