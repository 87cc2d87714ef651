package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// IndexSpec names one tracked index.
type IndexSpec struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// DefaultIndices is the canonical six-index table, in report order.
var DefaultIndices = []IndexSpec{
	{Code: "sh000001", Name: "上证指数"},
	{Code: "sz399001", Name: "深证成指"},
	{Code: "sz399006", Name: "创业板指"},
	{Code: "sh000688", Name: "科创50"},
	{Code: "sh000016", Name: "上证50"},
	{Code: "sh000300", Name: "沪深300"},
}

// Config holds all application configuration.
type Config struct {
	Indices []IndexSpec `yaml:"indices"`
	Fetch   struct {
		RetryAttempts int `yaml:"retry_attempts"`
	} `yaml:"fetch"`
	Leverage struct {
		WarningThreshold float64 `yaml:"warning_threshold"` // strictly above => warning
		WatchThreshold   float64 `yaml:"watch_threshold"`
		NormalThreshold  float64 `yaml:"normal_threshold"`
	} `yaml:"leverage"`
	Search struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"search"`
	LLM struct {
		Provider    string  `yaml:"provider"` // "openai", "gemini", or "" for template only
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"llm"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Fetch.RetryAttempts = n
		}
	}

	// Defaults
	if len(cfg.Indices) == 0 {
		cfg.Indices = DefaultIndices
	}
	if cfg.Fetch.RetryAttempts == 0 {
		cfg.Fetch.RetryAttempts = 2
	}
	if cfg.Leverage.WarningThreshold == 0 {
		cfg.Leverage.WarningThreshold = 3.5
	}
	if cfg.Leverage.WatchThreshold == 0 {
		cfg.Leverage.WatchThreshold = 3.0
	}
	if cfg.Leverage.NormalThreshold == 0 {
		cfg.Leverage.NormalThreshold = 2.5
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://api.bochaai.com/v1/web-search"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Indices) == 0 {
		return fmt.Errorf("indices table must not be empty")
	}
	for _, idx := range c.Indices {
		if idx.Code == "" || idx.Name == "" {
			return fmt.Errorf("index entry must have both code and name")
		}
	}
	if c.Fetch.RetryAttempts < 1 {
		return fmt.Errorf("fetch.retry_attempts must be at least 1")
	}
	if c.Leverage.WarningThreshold <= 0 {
		return fmt.Errorf("leverage.warning_threshold must be positive")
	}
	switch c.LLM.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be openai, gemini, or empty")
	}
	if c.LLM.Provider != "" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when llm.provider is set")
	}
	return nil
}
