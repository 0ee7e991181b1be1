package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"skiff/internal/agent"
	"skiff/internal/config"
	"skiff/internal/gateway/okx"
	"skiff/internal/gateway/provider"
	"skiff/internal/logger"
	"skiff/internal/prompt"
	"skiff/internal/scheduler"
	"skiff/internal/store"
	"skiff/internal/store/sqlite"
	livehttp "skiff/internal/transport/http/live"
)

// Build 根据配置组装全部依赖（不启动）。
func Build(cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if log == nil {
		log = logger.Nop()
	}
	log.SetLevel(cfg.App.LogLevel)

	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	exchange, err := okx.NewClient(okx.Config{
		APIKey:     cfg.Exchange.APIKey,
		SecretKey:  cfg.Exchange.SecretKey,
		Passphrase: cfg.Exchange.Passphrase,
		BaseURL:    cfg.Exchange.BaseURL,
		Simulated:  cfg.Exchange.Simulated,
		Timeout:    time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		Proxy:      cfg.Exchange.Proxy,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("初始化 OKX 客户端失败: %w", err)
	}

	model := provider.NewChatClient(
		cfg.AI.APIURL,
		cfg.AI.APIKey,
		cfg.AI.Model,
		cfg.AI.Temperature,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
	)

	system := prompt.NewSystemLoader(cfg.Prompt.Dir, cfg.Prompt.SystemTemplate, log)
	if cfg.Prompt.HotReload {
		if err := system.Watch(); err != nil {
			log.Warnf("提示词热更新不可用: %v", err)
		}
	}

	svc := agent.New(agent.Config{
		Symbol:        cfg.Trading.InstID(),
		BaseAsset:     cfg.Trading.BaseAsset,
		QuoteAsset:    cfg.Trading.QuoteAsset,
		MinTradeUnit:  cfg.Trading.MinTradeUnit,
		MinConfidence: cfg.AI.MinConfidence,
		ReserveRatio:  cfg.Trading.ReserveRatio,
		Interval:      cfg.Schedule.Interval,
		SlowInterval:  cfg.Schedule.SlowInterval,
		CandleLimit:   cfg.Schedule.CandleLimit,
		SlowLimit:     cfg.Schedule.SlowLimit,
		HistoryRounds: cfg.AI.HistoryRounds,
	}, exchange, model, st, system, log)

	var panel *livehttp.Server
	if cfg.Panel.Enabled {
		panel, err = livehttp.NewServer(livehttp.ServerConfig{
			Addr:     cfg.Panel.Addr,
			Token:    cfg.Panel.Token,
			Store:    st,
			Exchange: exchange,
			Config:   panelConfigView(cfg),
			Log:      log,
		})
		if err != nil {
			system.Close()
			st.Close()
			return nil, fmt.Errorf("初始化监控面板失败: %w", err)
		}
	}

	interval, err := scheduler.ParseInterval(cfg.Schedule.Interval)
	if err != nil {
		system.Close()
		st.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		store:    st,
		system:   system,
		service:  svc,
		panel:    panel,
		interval: interval,
		offset:   time.Duration(cfg.Schedule.OffsetSeconds) * time.Second,
	}, nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	path := cfg.Store.Path
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	st, err := sqlite.NewSqliteStore(path)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	return st, nil
}

func panelConfigView(cfg *config.Config) livehttp.ConfigView {
	return livehttp.ConfigView{
		Symbol:        cfg.Trading.InstID(),
		BaseAsset:     cfg.Trading.BaseAsset,
		QuoteAsset:    cfg.Trading.QuoteAsset,
		Interval:      cfg.Schedule.Interval,
		SlowInterval:  cfg.Schedule.SlowInterval,
		Model:         cfg.AI.Model,
		MinConfidence: cfg.AI.MinConfidence,
		MinTradeUnit:  cfg.Trading.MinTradeUnit,
		Simulated:     cfg.Exchange.Simulated,
		APIKeyMasked:  livehttp.MaskSecret(cfg.Exchange.APIKey),
		AIKeyMasked:   livehttp.MaskSecret(cfg.AI.APIKey),
	}
}
