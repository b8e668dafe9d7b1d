package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	brcfg "klinesync/internal/config"
	"klinesync/internal/history"
	"klinesync/internal/market"
	symbolpkg "klinesync/internal/pkg/symbol"
)

// defaultDataDir 是未指定 sync.path 时的输出目录
const defaultDataDir = "data"

// Job 是解析后的单个同步目标。End 为零值表示“到当前时间”。
type Job struct {
	Symbol   string
	Interval string
	Location string
	Start    time.Time
	End      time.Time
}

// ResolveJob validates the sync section and turns its strings into a Job.
func ResolveJob(sc brcfg.SyncConfig, now time.Time) (Job, error) {
	sym := symbolpkg.ToBinance(sc.Symbol)
	if sym == "" {
		return Job{}, fmt.Errorf("sync.symbol is required (use --symbol)")
	}
	interval := strings.TrimSpace(sc.Interval)
	if _, err := market.DurationOf(interval); err != nil {
		return Job{}, err
	}
	start, err := history.ParseBound(sc.Start, now)
	if err != nil {
		return Job{}, fmt.Errorf("sync.start: %w", err)
	}
	var end time.Time
	if !isNow(sc.End) {
		end, err = history.ParseBound(sc.End, now)
		if err != nil {
			return Job{}, fmt.Errorf("sync.end: %w", err)
		}
		if end.Before(start) {
			return Job{}, fmt.Errorf("sync.end %s is before sync.start %s",
				end.Format(time.RFC3339), start.Format(time.RFC3339))
		}
	}
	location := strings.TrimSpace(sc.Path)
	if location == "" {
		location = filepath.Join(defaultDataDir, fmt.Sprintf("%s_%s.csv", sym, interval))
	}
	return Job{
		Symbol:   sym,
		Interval: interval,
		Location: location,
		Start:    start,
		End:      end,
	}, nil
}

func isNow(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "now", "now utc":
		return true
	}
	return false
}
