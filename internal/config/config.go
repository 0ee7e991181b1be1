package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 yaml 配置文件并返回校验后的配置。
// 敏感字段（交易所密钥、模型密钥）未在文件中设置时回落到环境变量。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyEnvFallbacks()
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvFallbacks() {
	fallback(&c.Exchange.APIKey, "OKX_API_KEY")
	fallback(&c.Exchange.SecretKey, "OKX_SECRET_KEY")
	fallback(&c.Exchange.Passphrase, "OKX_PASSPHRASE")
	fallback(&c.AI.APIKey, "AI_API_KEY")
	fallback(&c.Panel.Token, "PANEL_TOKEN")
}

func fallback(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}
