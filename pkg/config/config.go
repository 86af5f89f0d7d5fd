package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Guard struct {
		CooldownSeconds    int     `yaml:"cooldown_seconds"`
		DedupWindowSeconds int     `yaml:"dedup_window_seconds"`
		QualityMinScore    int     `yaml:"quality_min_score"`
		ForbiddenUTCHours  string  `yaml:"forbidden_utc_hours"`
		RiskPerTradePct    float64 `yaml:"risk_per_trade_pct"`
		MaxDailyRiskPct    float64 `yaml:"max_daily_risk_pct"`
		StateBackend       string  `yaml:"state_backend"` // memory or redis
		Redis              struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"guard"`
	Journal struct {
		CSVPath       string `yaml:"csv_path"`
		RecentWindow  int    `yaml:"recent_window"`
		MirrorBackend string `yaml:"mirror_backend"` // none, kafka or clickhouse
		Kafka         struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host        string        `yaml:"host"`
			Port        int           `yaml:"port"`
			Database    string        `yaml:"database"`
			Table       string        `yaml:"table"`
			User        string        `yaml:"user"`
			Password    string        `yaml:"password"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"journal"`
	Telegram struct {
		BotToken         string `yaml:"bot_token"`
		ChannelID        string `yaml:"channel_id"`
		JournalChannelID string `yaml:"journal_channel_id"`
		ForwardToChannel bool   `yaml:"forward_to_channel"`
	} `yaml:"telegram"`
	OpenAI struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`
	TradingView struct {
		Secret string `yaml:"secret"`
	} `yaml:"tradingview"`
	News struct {
		CryptoPanicToken string        `yaml:"cryptopanic_token"`
		BlockEnabled     bool          `yaml:"block_enabled"`
		CacheTTL         time.Duration `yaml:"cache_ttl"`
	} `yaml:"news"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		c.Telegram.ChannelID = v
	}
	if v := os.Getenv("JOURNAL_CHANNEL_ID"); v != "" {
		c.Telegram.JournalChannelID = v
	}
	if v := os.Getenv("TV_SECRET"); v != "" {
		c.TradingView.Secret = v
	}
	if v := os.Getenv("CRYPTOPANIC_API_TOKEN"); v != "" {
		c.News.CryptoPanicToken = v
	}
	if v := os.Getenv("JOURNAL_CSV_PATH"); v != "" {
		c.Journal.CSVPath = v
	}
	if v := os.Getenv("COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Guard.CooldownSeconds = n
		}
	}
	if v := os.Getenv("DEDUP_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Guard.DedupWindowSeconds = n
		}
	}
	if v := os.Getenv("MAX_DAILY_RISK_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Guard.MaxDailyRiskPct = f
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Guard.StateBackend == "" {
		c.Guard.StateBackend = "memory"
	}
	if c.Journal.CSVPath == "" {
		c.Journal.CSVPath = "./trade_journal.csv"
	}
	if c.Journal.RecentWindow == 0 {
		c.Journal.RecentWindow = 300
	}
	if c.Journal.MirrorBackend == "" {
		c.Journal.MirrorBackend = "none"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 25 * time.Second
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Guard.StateBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("guard.state_backend must be 'memory' or 'redis', got '%s'", c.Guard.StateBackend)
	}
	if c.Guard.StateBackend == "redis" && c.Guard.Redis.Addr == "" {
		return fmt.Errorf("guard.redis.addr is required for the redis state backend")
	}
	switch c.Journal.MirrorBackend {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("journal.mirror_backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Journal.MirrorBackend)
	}
	if c.Journal.MirrorBackend == "kafka" && len(c.Journal.Kafka.Brokers) == 0 {
		return fmt.Errorf("journal.kafka.brokers cannot be empty for the kafka mirror")
	}
	if c.Journal.MirrorBackend == "clickhouse" && c.Journal.ClickHouse.Host == "" {
		return fmt.Errorf("journal.clickhouse.host is required for the clickhouse mirror")
	}
	if c.Guard.CooldownSeconds < 0 || c.Guard.DedupWindowSeconds < 0 {
		return fmt.Errorf("guard windows cannot be negative")
	}
	if c.Guard.MaxDailyRiskPct < 0 || c.Guard.RiskPerTradePct < 0 {
		return fmt.Errorf("guard risk percentages cannot be negative")
	}
	return nil
}
