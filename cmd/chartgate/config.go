package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"chart-gateway/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type config struct {
	ListenAddr    string `envconfig:"LISTEN_ADDR" default:":8080"`
	ReportsURL    string `envconfig:"REPORTS_URL"`
	ReportsPath   string `envconfig:"REPORTS_PATH" default:"/api/v1/reports/chart"`
	IngressBuffer int    `envconfig:"INGRESS_BUFFER" default:"256"`

	RateEnabled  bool          `envconfig:"RATE_ENABLED" default:"false"`
	RateRPS      float64       `envconfig:"RATE_RPS" default:"5"`
	RateBurst    int           `envconfig:"RATE_BURST" default:"10"`
	RateMaxDelay time.Duration `envconfig:"RATE_MAX_DELAY" default:"5s"`

	StateBackend   string        `envconfig:"STATE_BACKEND" default:"memory"`
	StatePrefix    string        `envconfig:"STATE_PREFIX" default:"chartgate:state"`
	StatsEnabled   bool          `envconfig:"STATS_ENABLED" default:"false"`
	StatsPrefix    string        `envconfig:"STATS_PREFIX" default:"chartgate:stats"`
	StatsTTL       time.Duration `envconfig:"STATS_TTL" default:"24h"`
	StatsBucket    string        `envconfig:"STATS_BUCKET" default:"minute"`
	StatsTrackKeys bool          `envconfig:"STATS_TRACK_KEYS" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stdout"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// readConfig carrega envFile (ou .env, se existir) e depois lê o ambiente.
func readConfig(envFile string) (config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))

	if strings.TrimSpace(cfg.ReportsURL) == "" {
		return config{}, errors.New("REPORTS_URL is required")
	}
	if cfg.IngressBuffer < 0 {
		return config{}, errors.New("INGRESS_BUFFER must be >= 0")
	}
	if cfg.RateEnabled {
		if cfg.RateRPS <= 0 {
			return config{}, errors.New("RATE_RPS must be > 0")
		}
		if cfg.RateBurst <= 0 {
			return config{}, errors.New("RATE_BURST must be > 0")
		}
		if cfg.RateMaxDelay <= 0 {
			return config{}, errors.New("RATE_MAX_DELAY must be > 0")
		}
	}
	switch cfg.StateBackend {
	case "memory", "redis":
	default:
		return config{}, fmt.Errorf("STATE_BACKEND must be memory or redis, got %q", cfg.StateBackend)
	}
	if cfg.needsRedis() && strings.TrimSpace(cfg.RedisAddr) == "" {
		return config{}, errors.New("REDIS_ADDR is required when STATE_BACKEND=redis")
	}
	return cfg, nil
}

func (c config) needsRedis() bool { return c.StateBackend == "redis" }

func (c config) logConfig() *logger.Config {
	return &logger.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		Output:     c.LogOutput,
		FilePath:   c.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     7,
	}
}
