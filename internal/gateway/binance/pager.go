package binance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"klinesync/internal/logger"
	"klinesync/internal/market"
	symbolpkg "klinesync/internal/pkg/symbol"
)

// KlineSource downloads every raw kline whose open time lies in [start, end].
type KlineSource interface {
	HistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Kline, error)
}

// pageFunc 拉取单页，startMs/endMs 均为闭区间。
type pageFunc func(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]market.Kline, error)

// paginate walks forward from start, one page at a time, until a short page
// or the end bound. The next page starts 1ms after the last open time seen.
func paginate(ctx context.Context, fetch pageFunc, symbol, interval string, start, end time.Time, limit int) ([]market.Kline, error) {
	symbol = symbolpkg.ToBinance(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if end.IsZero() {
		end = time.Now()
	}
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()
	var out []market.Kline
	for cursor <= endMs {
		page, err := fetch(ctx, symbol, interval, cursor, endMs, limit)
		if err != nil {
			return nil, err
		}
		logger.Debugf("[binance] %s %s page from=%d rows=%d", symbol, interval, cursor, len(page))
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
		last := page[len(page)-1].OpenTime
		if len(page) < limit || last < cursor {
			break
		}
		cursor = last + 1
	}
	return out, nil
}
