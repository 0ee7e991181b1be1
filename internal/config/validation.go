package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Schedule.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	if strings.TrimSpace(e.APIKey) == "" {
		return fmt.Errorf("exchange.api_key is required (or OKX_API_KEY env)")
	}
	if strings.TrimSpace(e.SecretKey) == "" {
		return fmt.Errorf("exchange.secret_key is required (or OKX_SECRET_KEY env)")
	}
	if strings.TrimSpace(e.Passphrase) == "" {
		return fmt.Errorf("exchange.passphrase is required (or OKX_PASSPHRASE env)")
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.APIKey) == "" {
		return fmt.Errorf("ai.api_key is required (or AI_API_KEY env)")
	}
	if a.MinConfidence < 0 || a.MinConfidence > 100 {
		return fmt.Errorf("ai.min_confidence must be within [0,100]")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if !strings.Contains(t.InstID(), "-") {
		return fmt.Errorf("trading.symbol must look like BASE-QUOTE (got %q)", t.Symbol)
	}
	if t.MinTradeUnit <= 0 {
		return fmt.Errorf("trading.min_trade_unit must be > 0")
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	for _, iv := range []string{s.Interval, s.SlowInterval} {
		if !validInterval(iv) {
			return fmt.Errorf("schedule contains unsupported interval: %s", iv)
		}
	}
	if s.OffsetSeconds < 0 {
		return fmt.Errorf("schedule.offset_seconds must be >= 0")
	}
	return nil
}

func validInterval(s string) bool {
	switch s {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "12h", "1d":
		return true
	}
	return false
}
