package config

import (
	"strings"
	"time"
)

// Config 是 klinesync 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Exchange ExchangeConfig `toml:"exchange"`
	Sync     SyncConfig     `toml:"sync"`
	Schedule ScheduleConfig `toml:"schedule"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// ExchangeConfig 描述行情源的访问方式；凭据也可来自环境变量。
type ExchangeConfig struct {
	Name           string      `toml:"name"`
	Market         string      `toml:"market"` // "spot" | "futures"
	Driver         string      `toml:"driver"` // "sdk" | "rest"
	RESTBaseURL    string      `toml:"rest_base_url"`
	APIKey         string      `toml:"api_key"`
	SecretKey      string      `toml:"secret_key"`
	TimeoutSeconds int         `toml:"timeout_seconds"`
	PageLimit      int         `toml:"page_limit"`
	Proxy          ProxyConfig `toml:"proxy"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
}

func (p *ProxyConfig) normalize() {
	p.RESTURL = strings.TrimSpace(p.RESTURL)
	if p.RESTURL == "" {
		p.Enabled = false
	}
}

// SyncConfig 是单个 symbol/interval/文件 的同步参数，命令行参数可覆盖。
type SyncConfig struct {
	Symbol       string `toml:"symbol"`
	Interval     string `toml:"interval"`
	Start        string `toml:"start"`
	End          string `toml:"end"`
	Path         string `toml:"path"`
	DropUnclosed bool   `toml:"drop_unclosed"`
}

// ScheduleConfig 控制 watch 命令的 cron 周期。
// 连续失败 MaxFailures 次后熔断，CooldownSeconds 内的触发会被跳过；MaxFailures=0 关闭熔断。
type ScheduleConfig struct {
	Cron            string `toml:"cron"`
	RunImmediately  bool   `toml:"run_immediately"`
	MaxFailures     int    `toml:"max_failures"`
	CooldownSeconds int    `toml:"cooldown_seconds"`
}

func (s ScheduleConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
