package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Candle 是持久化的一行 OHLCV，按 Time（毫秒精度，UTC）唯一定位。
type Candle struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// OpenTime 返回 Unix 毫秒时间戳。
func (c Candle) OpenTime() int64 {
	return c.Time.UnixMilli()
}

// Kline is the raw 12-field record returned by the exchange kline endpoints.
// Numeric fields stay as the decimal strings the exchange sent.
type Kline struct {
	OpenTime                 int64
	Open                     string
	High                     string
	Low                      string
	Close                    string
	Volume                   string
	CloseTime                int64
	QuoteAssetVolume         string
	TradeNum                 int64
	TakerBuyBaseAssetVolume  string
	TakerBuyQuoteAssetVolume string
	Ignore                   string
}

// Candle keeps the open time and the five OHLCV fields; everything else is dropped.
func (k Kline) Candle() (Candle, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	names := [5]string{"open", "high", "low", "close", "volume"}
	var vals [5]float64
	for i, raw := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("kline %d: invalid %s %q: %w", k.OpenTime, names[i], raw, err)
		}
		vals[i] = v
	}
	return Candle{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// CandlesFromKlines 批量转换，任一字段解析失败即返回错误。
func CandlesFromKlines(klines []Kline) ([]Candle, error) {
	out := make([]Candle, 0, len(klines))
	for _, k := range klines {
		c, err := k.Candle()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
