package config

// applyDefaults 为未显式设置的字段填入缺省值。
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://www.okx.com"
	}
	if c.Exchange.TimeoutSeconds <= 0 {
		c.Exchange.TimeoutSeconds = 30
	}
	if c.AI.APIURL == "" {
		c.AI.APIURL = "https://api.deepseek.com/v1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "deepseek-reasoner"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 180
	}
	if c.AI.MinConfidence <= 0 {
		c.AI.MinConfidence = 70
	}
	if c.AI.HistoryRounds <= 0 {
		c.AI.HistoryRounds = 10
	}
	if c.Trading.BaseAsset == "" {
		c.Trading.BaseAsset = "BTC"
	}
	if c.Trading.QuoteAsset == "" {
		c.Trading.QuoteAsset = "USDT"
	}
	if c.Trading.Symbol == "" {
		c.Trading.Symbol = c.Trading.BaseAsset + "-" + c.Trading.QuoteAsset
	}
	if c.Trading.MinTradeUnit <= 0 {
		c.Trading.MinTradeUnit = 0.00001
	}
	if c.Trading.ReserveRatio <= 0 || c.Trading.ReserveRatio > 1 {
		c.Trading.ReserveRatio = 0.95
	}
	if c.Schedule.Interval == "" {
		c.Schedule.Interval = "15m"
	}
	if c.Schedule.SlowInterval == "" {
		c.Schedule.SlowInterval = "1h"
	}
	if c.Schedule.CandleLimit <= 0 {
		c.Schedule.CandleLimit = 30
	}
	if c.Schedule.SlowLimit <= 0 {
		c.Schedule.SlowLimit = 24
	}
	if c.Prompt.Dir == "" {
		c.Prompt.Dir = "prompts"
	}
	if c.Prompt.SystemTemplate == "" {
		c.Prompt.SystemTemplate = "system.md"
	}
	if c.Panel.Addr == "" {
		c.Panel.Addr = ":8080"
	}
	if c.Store.Path == "" {
		if c.Exchange.Simulated {
			c.Store.Path = "data/skiff_sim.db"
		} else {
			c.Store.Path = "data/skiff.db"
		}
	}
}
