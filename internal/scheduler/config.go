package scheduler

import (
	"time"

	"github.com/smallbiznis/warrantyhub/internal/config"
)

// Config controls the claim event relay loop.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	StreamKey   string
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		RunInterval: 5 * time.Second,
		BatchSize:   100,
		JobTimeout:  30 * time.Second,
		StreamKey:   "warranty_claim_events",
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:     cfg.OutboxRelay.Enabled,
		RunInterval: time.Duration(cfg.OutboxRelay.IntervalSeconds) * time.Second,
		BatchSize:   cfg.OutboxRelay.BatchSize,
		StreamKey:   cfg.OutboxRelay.StreamKey,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.StreamKey == "" {
		c.StreamKey = defaults.StreamKey
	}
	return c
}
