// Package history downloads candle history and keeps a persisted series
// up to date by fetching only the missing suffix.
package history

import (
	"context"
	"fmt"
	"time"

	"klinesync/internal/logger"
	"klinesync/internal/market"
	"klinesync/internal/store"
)

// KlineClient 是交易所历史 K 线接口，由调用方注入。
type KlineClient interface {
	HistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Kline, error)
}

type Option func(*Fetcher)

// WithDropUnclosed trims a trailing candle that has not closed at fetch time.
func WithDropUnclosed(enabled bool) Option {
	return func(f *Fetcher) { f.dropUnclosed = enabled }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

type Fetcher struct {
	client       KlineClient
	store        store.SeriesStore
	dropUnclosed bool
	now          func() time.Time
}

func NewFetcher(client KlineClient, st store.SeriesStore, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		store:  st,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRange downloads [start, end] and keeps only the OHLCV fields.
// A zero end means now. Exchange failures come back as *market.RemoteFetchError.
func (f *Fetcher) FetchRange(ctx context.Context, symbol, interval string, start, end time.Time) (market.Series, error) {
	step, err := market.DurationOf(interval)
	if err != nil {
		return market.Series{}, err
	}
	if end.IsZero() {
		end = f.now()
	}
	klines, err := f.client.HistoricalKlines(ctx, symbol, interval, start, end)
	if err != nil {
		return market.Series{}, &market.RemoteFetchError{Symbol: symbol, Interval: interval, Err: err}
	}
	if f.dropUnclosed {
		klines = market.DropUnclosed(klines, step, f.now())
	}
	candles, err := market.CandlesFromKlines(klines)
	if err != nil {
		return market.Series{}, &market.RemoteFetchError{Symbol: symbol, Interval: interval, Err: err}
	}
	logger.Debugf("fetched %s %s from %s: %d rows", symbol, interval, start.UTC().Format(time.RFC3339), len(candles))
	return market.NewSeries(candles...), nil
}

// FetchInitial 拉取完整区间并写入 location，覆盖已有内容。
func (f *Fetcher) FetchInitial(ctx context.Context, symbol, interval string, start, end time.Time, location string) (market.Series, error) {
	series, err := f.FetchRange(ctx, symbol, interval, start, end)
	if err != nil {
		return market.Series{}, err
	}
	if err := f.store.Save(ctx, series, location); err != nil {
		return market.Series{}, fmt.Errorf("save %s: %w", location, err)
	}
	logger.Infof("Initial historical data saved to '%s' (%d rows)", location, series.Len())
	return series, nil
}
