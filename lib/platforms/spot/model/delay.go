package model

import (
	"fmt"
	"time"
)

// DelayConfig controls the random pause taken before each request.
type DelayConfig struct {
	MinDelayMs uint64 `json:"min_delay_ms"`
	MaxDelayMs uint64 `json:"max_delay_ms"`
	Enabled    bool   `json:"enabled"`
}

func DefaultDelayConfig() DelayConfig {
	return DelayConfig{
		MinDelayMs: 1000,
		MaxDelayMs: 3000,
		Enabled:    true,
	}
}

func (c DelayConfig) Validate() error {
	if c.MinDelayMs > c.MaxDelayMs {
		return fmt.Errorf("min delay %dms is greater than max delay %dms", c.MinDelayMs, c.MaxDelayMs)
	}
	return nil
}

func (c DelayConfig) Min() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

func (c DelayConfig) Max() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
