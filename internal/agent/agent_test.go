package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/gateway/okx"
	"skiff/internal/gateway/provider"
	"skiff/internal/logger"
	"skiff/internal/market"
	"skiff/internal/pkg/retry"
	"skiff/internal/store"
	"skiff/internal/store/model"
)

type mockExchange struct {
	candles    map[string]market.Candles
	candlesErr error
	ticker     float64
	tickerErr  error
	balance    okx.Balance
	balanceErr error
	fills      []okx.Fill
	fillsErr   error

	placed    []placedOrder
	placeErr  error
	orderInfo okx.Order
}

type placedOrder struct {
	Side   string
	Size   string
	TgtCcy string
}

func (m *mockExchange) GetBalance(ctx context.Context, base, quote string) (okx.Balance, error) {
	return m.balance, m.balanceErr
}

func (m *mockExchange) GetTicker(ctx context.Context, instID string) (okx.Ticker, error) {
	if m.tickerErr != nil {
		return okx.Ticker{}, m.tickerErr
	}
	return okx.Ticker{InstID: instID, Last: m.ticker}, nil
}

func (m *mockExchange) GetCandles(ctx context.Context, instID, interval string, limit int) (market.Candles, error) {
	if m.candlesErr != nil {
		return nil, m.candlesErr
	}
	return m.candles[interval], nil
}

func (m *mockExchange) GetFillHistory(ctx context.Context, instID string, limit int) ([]okx.Fill, error) {
	return m.fills, m.fillsErr
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, instID, side, size, tgtCcy string) (okx.OrderResult, error) {
	if m.placeErr != nil {
		return okx.OrderResult{}, m.placeErr
	}
	m.placed = append(m.placed, placedOrder{Side: side, Size: size, TgtCcy: tgtCcy})
	return okx.OrderResult{OrderID: "ord-1"}, nil
}

func (m *mockExchange) GetOrder(ctx context.Context, instID, orderID string) (okx.Order, error) {
	return m.orderInfo, nil
}

type mockModel struct {
	reply provider.Reply
	err   error
	calls int
	last  []provider.Message
}

func (m *mockModel) CallWithMessages(ctx context.Context, messages []provider.Message) (provider.Reply, error) {
	m.calls++
	m.last = messages
	return m.reply, m.err
}

type memStore struct {
	trades   []model.TradeModel
	statuses []model.StatusModel
}

func (m *memStore) SaveTrade(ctx context.Context, t *model.TradeModel) error {
	m.trades = append(m.trades, *t)
	return nil
}

func (m *memStore) SaveStatus(ctx context.Context, st *model.StatusModel) error {
	m.statuses = append(m.statuses, *st)
	return nil
}

func (m *memStore) RecentTrades(ctx context.Context, limit int) ([]model.TradeModel, error) {
	out := make([]model.TradeModel, 0, limit)
	for i := len(m.trades) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.trades[i])
	}
	return out, nil
}

func (m *memStore) LastBuyTrade(ctx context.Context) (*model.TradeModel, error) {
	for i := len(m.trades) - 1; i >= 0; i-- {
		if m.trades[i].Action == "BUY" {
			t := m.trades[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) RecentDecisions(ctx context.Context, limit int) ([]store.DecisionRecord, error) {
	return nil, nil
}

func (m *memStore) LatestStatus(ctx context.Context) (*model.StatusModel, error) {
	if len(m.statuses) == 0 {
		return nil, nil
	}
	s := m.statuses[len(m.statuses)-1]
	return &s, nil
}

func (m *memStore) Performance(ctx context.Context, limit int) (store.Performance, error) {
	return store.Performance{}, nil
}

func (m *memStore) Statistics(ctx context.Context) (store.Statistics, error) {
	return store.Statistics{TotalTrades: len(m.trades)}, nil
}

func (m *memStore) Close() error { return nil }

type staticSystem string

func (s staticSystem) System() string { return string(s) }

func testCandles(n int, price float64) market.Candles {
	out := make(market.Candles, n)
	for i := range out {
		out[i] = market.Candle{Open: price, High: price, Low: price, Close: price, Volume: 1}
	}
	return out
}

func newTestService(ex *mockExchange, mdl *mockModel, st store.Store) *Service {
	s := New(Config{
		Symbol:        "BTC-USDT",
		BaseAsset:     "BTC",
		QuoteAsset:    "USDT",
		MinTradeUnit:  0.00001,
		MinConfidence: 70,
		Interval:      "15m",
		SlowInterval:  "1h",
		CandleLimit:   30,
		SlowLimit:     24,
	}, ex, mdl, st, staticSystem("sys"), logger.Nop())
	s.SetRetryPolicy(retry.Policy{Attempts: 1, Delay: time.Millisecond})
	s.sleepFn = func(time.Duration) {}
	return s
}

func TestRunCycleBuyExecutes(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{
			"15m": testCandles(30, 50000),
			"1h":  testCandles(24, 50000),
		},
		balance:   okx.Balance{AvailableUSDT: 1000, AvailableAsset: 0},
		orderInfo: okx.Order{State: "filled", AvgPrice: 50010, FilledSize: 0.0019},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"BUY","confidence":85,"reason":"突破","risk_level":"MEDIUM","suggested_usdt":95}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	require.Len(t, ex.placed, 1)
	assert.Equal(t, "buy", ex.placed[0].Side)
	assert.Equal(t, "quote_ccy", ex.placed[0].TgtCcy)
	assert.Equal(t, "95", ex.placed[0].Size)

	require.Len(t, st.trades, 1)
	assert.Equal(t, "BUY", st.trades[0].Action)
	assert.Equal(t, 50010.0, st.trades[0].Price)
	assert.Equal(t, 0.0019, st.trades[0].Amount)

	require.Len(t, st.statuses, 1)
	assert.Contains(t, string(st.statuses[0].Decision), `"action":"BUY"`)
	assert.NotEmpty(t, st.statuses[0].TraceID)

	// 买入后更新本地成本记录。
	assert.Equal(t, 50010.0, s.memory.LastBuyPrice())
}

func TestRunCycleHoldDoesNotTrade(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{"15m": testCandles(30, 50000)},
		balance: okx.Balance{AvailableUSDT: 1000},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"HOLD","confidence":90,"reason":"观望","risk_level":"LOW"}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	assert.Empty(t, ex.placed)
	assert.Empty(t, st.trades)
	// HOLD 也要落库。
	require.Len(t, st.statuses, 1)
}

func TestRunCycleLowConfidenceSkips(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{"15m": testCandles(30, 50000)},
		balance: okx.Balance{AvailableUSDT: 1000},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"BUY","confidence":50,"reason":"弱信号","risk_level":"HIGH","suggested_usdt":100}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	assert.Empty(t, ex.placed)
	require.Len(t, st.statuses, 1)
}

func TestRunCycleInvalidOutputPersistsAndSkips(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{"15m": testCandles(30, 50000)},
		balance: okx.Balance{AvailableUSDT: 1000},
	}
	mdl := &mockModel{reply: provider.Reply{Content: `{"action":"BUY","confidence":85}`}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	assert.Empty(t, ex.placed)
	require.Len(t, st.statuses, 1)
	assert.Contains(t, string(st.statuses[0].Decision), "error")
}

func TestRunCycleDegradesToTicker(t *testing.T) {
	ex := &mockExchange{
		candlesErr: errors.New("boom"),
		ticker:     50000,
		balance:    okx.Balance{AvailableUSDT: 1000},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"HOLD","confidence":90,"reason":"观望","risk_level":"LOW"}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	// 降级后仍然完成决策。
	assert.Equal(t, 1, mdl.calls)
	require.Len(t, st.statuses, 1)
	assert.Equal(t, 50000.0, st.statuses[0].Price)
}

func TestRunCycleAbortsWhenNoPrice(t *testing.T) {
	ex := &mockExchange{
		candlesErr: errors.New("boom"),
		tickerErr:  errors.New("also boom"),
	}
	mdl := &mockModel{}
	s := newTestService(ex, mdl, &memStore{})

	s.RunCycle(context.Background())

	assert.Zero(t, mdl.calls)
}

func TestRunCycleAbortsOnBalanceFailure(t *testing.T) {
	ex := &mockExchange{
		candles:    map[string]market.Candles{"15m": testCandles(30, 50000)},
		balanceErr: errors.New("auth failed"),
	}
	mdl := &mockModel{}
	s := newTestService(ex, mdl, &memStore{})

	s.RunCycle(context.Background())

	assert.Zero(t, mdl.calls)
}

func TestRunCycleSellComputesProfit(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{"15m": testCandles(30, 51000)},
		balance: okx.Balance{AvailableUSDT: 100, AvailableAsset: 0.5},
		fills: []okx.Fill{
			{Side: "buy", Size: 0.5, Price: 50000, Ts: time.Now()},
		},
		orderInfo: okx.Order{State: "filled", AvgPrice: 51000, FilledSize: 0.5},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"SELL","confidence":85,"reason":"见顶","risk_level":"MEDIUM","suggested_amount":0.5}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	require.Len(t, ex.placed, 1)
	assert.Equal(t, "sell", ex.placed[0].Side)
	assert.Equal(t, "base_ccy", ex.placed[0].TgtCcy)

	require.Len(t, st.trades, 1)
	assert.Equal(t, "SELL", st.trades[0].Action)
	// (51000-50000)*0.5 = 500
	assert.InDelta(t, 500.0, st.trades[0].Profit, 0.01)
}

func TestRunCycleExecutionFailureCompletes(t *testing.T) {
	ex := &mockExchange{
		candles:  map[string]market.Candles{"15m": testCandles(30, 50000)},
		balance:  okx.Balance{AvailableUSDT: 1000},
		placeErr: errors.New("okx down"),
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"BUY","confidence":85,"reason":"突破","risk_level":"MEDIUM","suggested_usdt":95}`,
	}}
	st := &memStore{}
	s := newTestService(ex, mdl, st)

	s.RunCycle(context.Background())

	// 状态已落库，但交易未落库。
	require.Len(t, st.statuses, 1)
	assert.Empty(t, st.trades)
}

func TestFormatSellSizeTruncates(t *testing.T) {
	assert.Equal(t, "0.12345678", formatSellSize(0.123456789))
	assert.Equal(t, "0.5", formatSellSize(0.5))
	assert.Equal(t, "1", formatSellSize(1.0))
}

func TestResolveCostBasisPrecedence(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}

	// 1. 成交记录可用时优先。
	ex := &mockExchange{fills: []okx.Fill{{Side: "buy", Size: 0.5, Price: 48000, Ts: time.Now()}}}
	s := newTestService(ex, &mockModel{}, st)
	res, source := s.resolveCostBasis(ctx, 0.5, 50000)
	assert.Equal(t, 48000.0, res.AvgPrice)
	assert.Contains(t, source, "交易所成交记录")

	// 2. 成交记录为空时用内存最后买入价。
	ex2 := &mockExchange{}
	s2 := newTestService(ex2, &mockModel{}, st)
	s2.memory.SetPosition(49000, 0.5)
	res, source = s2.resolveCostBasis(ctx, 0.5, 50000)
	assert.Equal(t, 49000.0, res.AvgPrice)
	assert.Equal(t, "本地记录", source)

	// 3. 再退化到数据库最近 BUY。
	st3 := &memStore{trades: []model.TradeModel{{Action: "BUY", Price: 47000}}}
	s3 := newTestService(&mockExchange{}, &mockModel{}, st3)
	res, source = s3.resolveCostBasis(ctx, 0.5, 50000)
	assert.Equal(t, 47000.0, res.AvgPrice)
	assert.Equal(t, "数据库", source)

	// 4. 全部缺失时用当前价。
	s4 := newTestService(&mockExchange{}, &mockModel{}, &memStore{})
	res, source = s4.resolveCostBasis(ctx, 0.5, 50000)
	assert.Equal(t, 50000.0, res.AvgPrice)
	assert.Equal(t, "当前价(未知)", source)
}

func TestMessagesIncludeSystemAndUser(t *testing.T) {
	ex := &mockExchange{
		candles: map[string]market.Candles{"15m": testCandles(30, 50000)},
		balance: okx.Balance{AvailableUSDT: 1000},
	}
	mdl := &mockModel{reply: provider.Reply{
		Content: `{"action":"HOLD","confidence":90,"reason":"观望","risk_level":"LOW"}`,
	}}
	s := newTestService(ex, mdl, &memStore{})

	s.RunCycle(context.Background())

	require.NotEmpty(t, mdl.last)
	assert.Equal(t, "system", mdl.last[0].Role)
	assert.Equal(t, "sys", mdl.last[0].Content)
	assert.Equal(t, "user", mdl.last[len(mdl.last)-1].Role)
	assert.Contains(t, mdl.last[len(mdl.last)-1].Content, "K线数据")
}
