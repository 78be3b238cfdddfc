package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/CodeSync/internal/compile"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string         `mapstructure:"mode"`
	Port          int            `mapstructure:"port"`
	StaticPath    string         `mapstructure:"static_path"`
	ReadLimit     int64          `mapstructure:"read_limit"`
	PingPeriod    time.Duration  `mapstructure:"ping_period"`
	PongWait      time.Duration  `mapstructure:"pong_wait"`
	Secret        string         `mapstructure:"secret"`
	LogLevel      string         `mapstructure:"log_level"`
	AllowedOrigin string         `mapstructure:"allowed_origin"`
	SendBuffer    int            `mapstructure:"send_buffer"`
	MaxTextBytes  int            `mapstructure:"max_text_bytes"`
	RateLimit     int            `mapstructure:"rate_limit"`
	RateInterval  time.Duration  `mapstructure:"rate_interval"`
	RateEntryTTL  time.Duration  `mapstructure:"rate_entry_ttl"`
	RoomTTL       time.Duration  `mapstructure:"room_ttl"`
	JanitorEvery  time.Duration  `mapstructure:"janitor_interval"`
	Backpressure  string         `mapstructure:"backpressure"`
	StorePath     string         `mapstructure:"store_path"`
	Compile       compile.Config `mapstructure:"compile"`
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return load(fmt.Sprintf("config/config.%s.yaml", env))
}

func load(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("CODESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origin", "")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("max_text_bytes", 512*1024)
	v.SetDefault("rate_limit", 50)
	v.SetDefault("rate_interval", "1s")
	v.SetDefault("rate_entry_ttl", "10m")
	v.SetDefault("room_ttl", "10m")
	v.SetDefault("janitor_interval", "1m")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("store_path", "")
	v.SetDefault("compile.endpoint", compile.DefaultEndpoint)
	v.SetDefault("compile.client_id", "")
	v.SetDefault("compile.client_secret", "")
	v.SetDefault("compile.timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PongWait <= cfg.PingPeriod {
		return nil, fmt.Errorf("pong_wait (%s) must exceed ping_period (%s)", cfg.PongWait, cfg.PingPeriod)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}
