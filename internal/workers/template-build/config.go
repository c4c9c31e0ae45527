package templatebuild

import (
	"time"

	"template-builder/internal/common/config"
)

type Config struct {
	MaxJobsActive int
	Timeout       time.Duration
}

func LoadConfig(cfg config.CamundaConfig) *Config {
	c := &Config{
		MaxJobsActive: cfg.MaxJobsActive,
		Timeout:       config.GetDuration(cfg.Timeout),
	}
	if c.MaxJobsActive <= 0 {
		c.MaxJobsActive = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	return c
}
