package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultExchangeName    = "binance"
	defaultExchangeMarket  = "spot"
	defaultExchangeDriver  = "sdk"
	defaultExchangeTimeout = 15
	defaultSyncInterval    = "1h"
	defaultSyncStart       = "1 Jan, 2020"
	defaultSyncEnd         = "now"
	defaultDropUnclosed    = true
	defaultScheduleCron    = "0 */5 * * * *"
	defaultMaxFailures     = 3
	defaultCooldownSeconds = 300
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Sync.applyDefaults(keys)
	c.Schedule.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	e.Proxy.normalize()
	e.Market = strings.ToLower(strings.TrimSpace(e.Market))
	e.Driver = strings.ToLower(strings.TrimSpace(e.Driver))
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchangeName),
		stringFieldDefault("exchange.market", &e.Market, defaultExchangeMarket),
		stringFieldDefault("exchange.driver", &e.Driver, defaultExchangeDriver),
		fieldDefault{
			key:   "exchange.timeout_seconds",
			need:  func() bool { return e.TimeoutSeconds <= 0 },
			apply: func() { e.TimeoutSeconds = defaultExchangeTimeout },
		},
	)
}

func (s *SyncConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("sync.interval", &s.Interval, defaultSyncInterval),
		stringFieldDefault("sync.start", &s.Start, defaultSyncStart),
		stringFieldDefault("sync.end", &s.End, defaultSyncEnd),
		boolFieldDefault("sync.drop_unclosed", &s.DropUnclosed, defaultDropUnclosed),
	)
}

func (s *ScheduleConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("schedule.cron", &s.Cron, defaultScheduleCron),
		boolFieldDefault("schedule.run_immediately", &s.RunImmediately, true),
		intFieldDefault("schedule.max_failures", &s.MaxFailures, defaultMaxFailures),
		intFieldDefault("schedule.cooldown_seconds", &s.CooldownSeconds, defaultCooldownSeconds),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// intFieldDefault 只在配置文件未显式设置该字段时生效，因此显式的 0 会被保留。
func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
