package config

import "strings"

// Config 是 Skiff 的主配置载体。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	AI       AIConfig       `mapstructure:"ai"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Store    StoreConfig    `mapstructure:"store"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload"`
}

// ExchangeConfig 描述 OKX 账户与接入方式。
type ExchangeConfig struct {
	APIKey         string `mapstructure:"api_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Passphrase     string `mapstructure:"passphrase"`
	BaseURL        string `mapstructure:"base_url"`
	Simulated      bool   `mapstructure:"simulated"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Proxy          string `mapstructure:"proxy"`
}

// AIConfig 包含模型接入与决策门槛设置。
type AIConfig struct {
	APIURL         string  `mapstructure:"api_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MinConfidence  int     `mapstructure:"min_confidence"`
	HistoryRounds  int     `mapstructure:"history_rounds"`
}

// TradingConfig 控制交易标的与仓位边界。
type TradingConfig struct {
	Symbol       string  `mapstructure:"symbol"`
	BaseAsset    string  `mapstructure:"base_asset"`
	QuoteAsset   string  `mapstructure:"quote_asset"`
	MinTradeUnit float64 `mapstructure:"min_trade_unit"`
	ReserveRatio float64 `mapstructure:"reserve_ratio"`
}

// ScheduleConfig 控制决策周期与K线抓取规模。
type ScheduleConfig struct {
	Interval       string `mapstructure:"interval"`
	SlowInterval   string `mapstructure:"slow_interval"`
	CandleLimit    int    `mapstructure:"candle_limit"`
	SlowLimit      int    `mapstructure:"slow_limit"`
	OffsetSeconds  int    `mapstructure:"offset_seconds"`
	RunImmediately bool   `mapstructure:"run_immediately"`
}

type PromptConfig struct {
	Dir            string `mapstructure:"dir"`
	SystemTemplate string `mapstructure:"system_template"`
	HotReload      bool   `mapstructure:"hot_reload"`
}

// PanelConfig 控制只读监控面板。
type PanelConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Token   string `mapstructure:"token"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// InstID 返回 OKX 风格的交易对标识（如 BTC-USDT）。
func (t TradingConfig) InstID() string {
	s := strings.TrimSpace(t.Symbol)
	if s != "" {
		return s
	}
	return t.BaseAsset + "-" + t.QuoteAsset
}
