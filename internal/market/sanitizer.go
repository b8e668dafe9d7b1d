package market

import "time"

const DefaultKlineGrace = 10 * time.Second

// DropUnclosed drops the last element if it is still in-progress.
// Binance style: the last kline may be the current, not-yet-closed candle.
//
// The record's own close time is used when present; otherwise open time plus
// interval. Kline times are expected to be in milliseconds since epoch.
func DropUnclosed(klines []Kline, interval time.Duration, now time.Time) []Kline {
	return dropUnclosedAt(klines, interval, now, DefaultKlineGrace)
}

func dropUnclosedAt(klines []Kline, interval time.Duration, now time.Time, grace time.Duration) []Kline {
	if len(klines) == 0 {
		return klines
	}
	if grace < 0 {
		grace = 0
	}
	last := klines[len(klines)-1]
	closeTimeMs := last.CloseTime
	if closeTimeMs <= 0 {
		if last.OpenTime <= 0 || interval <= 0 {
			return klines
		}
		closeTimeMs = last.OpenTime + interval.Milliseconds()
	}
	cutoffMs := closeTimeMs + grace.Milliseconds()
	if now.UnixMilli() < cutoffMs {
		return klines[:len(klines)-1]
	}
	return klines
}
