package config

import (
	"fmt"
	"strings"

	"klinesync/internal/market"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}
	return c.Schedule.validate()
}

func (e *ExchangeConfig) validate() error {
	if !strings.EqualFold(strings.TrimSpace(e.Name), "binance") {
		return fmt.Errorf("unsupported exchange.name: %s", e.Name)
	}
	switch e.Market {
	case "spot", "futures":
	default:
		return fmt.Errorf("exchange.market must be spot or futures, got %q", e.Market)
	}
	switch e.Driver {
	case "sdk", "rest":
	default:
		return fmt.Errorf("exchange.driver must be sdk or rest, got %q", e.Driver)
	}
	if e.PageLimit < 0 {
		return fmt.Errorf("exchange.page_limit must be >= 0")
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if strings.TrimSpace(s.Interval) == "" {
		return nil
	}
	if _, err := market.DurationOf(s.Interval); err != nil {
		return fmt.Errorf("sync.interval: %w", err)
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if s.MaxFailures < 0 {
		return fmt.Errorf("schedule.max_failures must be >= 0")
	}
	if s.CooldownSeconds < 0 {
		return fmt.Errorf("schedule.cooldown_seconds must be >= 0")
	}
	return nil
}
