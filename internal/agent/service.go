package agent

import (
	"context"
	"time"

	"skiff/internal/logger"
	"skiff/internal/pkg/retry"
	"skiff/internal/store"
)

// Config 汇总编排循环的交易参数。
type Config struct {
	Symbol        string
	BaseAsset     string
	QuoteAsset    string
	MinTradeUnit  float64
	MinConfidence int
	ReserveRatio  float64
	Interval      string
	SlowInterval  string
	CandleLimit   int
	SlowLimit     int
	HistoryRounds int
}

// SystemPrompter 提供当前系统提示词（支持热更新的加载器实现它）。
type SystemPrompter interface {
	System() string
}

// Service 驱动一轮轮"行情 → 决策 → 执行 → 落库"的交易循环。
type Service struct {
	cfg      Config
	exchange Exchange
	model    ModelClient
	store    store.Store
	system   SystemPrompter
	log      *logger.Logger
	retry    retry.Policy
	memory   *Memory

	sleepFn func(time.Duration)
}

func New(cfg Config, exchange Exchange, model ModelClient, st store.Store, system SystemPrompter, log *logger.Logger) *Service {
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 30
	}
	if cfg.SlowLimit <= 0 {
		cfg.SlowLimit = 24
	}
	if cfg.HistoryRounds <= 0 {
		cfg.HistoryRounds = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cfg:      cfg,
		exchange: exchange,
		model:    model,
		store:    st,
		system:   system,
		log:      log,
		retry:    retry.Default(),
		memory:   &Memory{},
	}
}

// SetRetryPolicy 覆盖网络调用的重试策略。
func (s *Service) SetRetryPolicy(p retry.Policy) { s.retry = p }

// CheckBalance 启动前检查账户可达并打印余额。
func (s *Service) CheckBalance(ctx context.Context) error {
	balance, err := s.exchange.GetBalance(ctx, s.cfg.BaseAsset, s.cfg.QuoteAsset)
	if err != nil {
		return err
	}
	s.log.Infof("账户余额: $%.2f %s | %.8f %s",
		balance.AvailableUSDT, s.cfg.QuoteAsset, balance.AvailableAsset, s.cfg.BaseAsset)
	return nil
}

// LogStatistics 打印累计交易统计（停机时调用）。
func (s *Service) LogStatistics(ctx context.Context) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		s.log.Warnf("读取交易统计失败: %v", err)
		return
	}
	s.log.InfoBlock(
		"交易统计:\n" +
			formatStatLine("总交易次数", stats.TotalTrades) +
			formatStatLine("买入次数", stats.BuyCount) +
			formatStatLine("卖出次数", stats.SellCount) +
			formatMoneyLine("总盈亏", stats.TotalProfit) +
			formatMoneyLine("平均盈亏", stats.AvgProfit))
}
