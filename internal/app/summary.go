package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	brcfg "klinesync/internal/config"
)

type StartupSummary struct {
	Exchange ExchangeSummary
	Job      Job
	Schedule brcfg.ScheduleConfig
	Unclosed bool
}

type ExchangeSummary struct {
	Name   string
	Market string
	Driver string
	Proxy  string
}

func newStartupSummary(cfg *brcfg.Config, job Job) *StartupSummary {
	proxy := "-"
	if cfg.Exchange.Proxy.Enabled {
		proxy = cfg.Exchange.Proxy.RESTURL
	}
	return &StartupSummary{
		Exchange: ExchangeSummary{
			Name:   cfg.Exchange.Name,
			Market: cfg.Exchange.Market,
			Driver: cfg.Exchange.Driver,
			Proxy:  proxy,
		},
		Job:      job,
		Schedule: cfg.Schedule,
		Unclosed: cfg.Sync.DropUnclosed,
	}
}

func (s *StartupSummary) Print(w io.Writer) {
	title := "启动配置摘要 (STARTUP SUMMARY)"
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "%*s\n", 30+len(title)/2, title)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintln(w, "[行情源 (EXCHANGE)]")
	fmt.Fprintf(w, "  交易所: %s (%s, driver=%s)\n", s.Exchange.Name, s.Exchange.Market, s.Exchange.Driver)
	fmt.Fprintf(w, "  代理: %s\n", s.Exchange.Proxy)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[同步目标 (SYNC)]")
	fmt.Fprintf(w, "  币种/周期: %s %s\n", s.Job.Symbol, s.Job.Interval)
	fmt.Fprintf(w, "  文件: %s\n", s.Job.Location)
	fmt.Fprintf(w, "  起始: %s\n", s.Job.Start.Format(time.RFC3339))
	end := "now"
	if !s.Job.End.IsZero() {
		end = s.Job.End.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "  截止(首次): %s\n", end)
	fmt.Fprintf(w, "  丢弃未收盘K线: %v\n", s.Unclosed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[调度 (SCHEDULE)]")
	fmt.Fprintf(w, "  cron: %s\n", s.Schedule.Cron)
	fmt.Fprintf(w, "  启动即执行: %v\n", s.Schedule.RunImmediately)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
