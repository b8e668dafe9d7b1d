package market

import (
	"sort"
	"time"
)

// Series 是按时间严格递增、时间戳唯一的 K 线序列。
// candles 保存有序记录，index 以毫秒时间戳定位下标。
type Series struct {
	candles []Candle
	index   map[int64]int
}

// NewSeries 排序并按时间戳去重，同一时间戳保留最后出现的一条。
func NewSeries(candles ...Candle) Series {
	return buildSeries(normalize(candles))
}

func buildSeries(sorted []Candle) Series {
	idx := make(map[int64]int, len(sorted))
	for i, c := range sorted {
		idx[c.OpenTime()] = i
	}
	return Series{candles: sorted, index: idx}
}

func normalize(in []Candle) []Candle {
	out := make([]Candle, len(in))
	for i, c := range in {
		c.Time = c.Time.UTC().Truncate(time.Millisecond)
		out[i] = c
	}
	// stable: equal timestamps keep input order, so the later row wins below
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	deduped := out[:0]
	for _, c := range out {
		n := len(deduped)
		if n > 0 && deduped[n-1].Time.Equal(c.Time) {
			deduped[n-1] = c
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}

func (s Series) Len() int { return len(s.candles) }

func (s Series) IsEmpty() bool { return len(s.candles) == 0 }

// Candles 返回副本。
func (s Series) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

func (s Series) At(i int) Candle { return s.candles[i] }

func (s Series) First() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[0], true
}

func (s Series) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Lookup finds the candle opening exactly at t.
func (s Series) Lookup(t time.Time) (Candle, bool) {
	i, ok := s.index[t.UnixMilli()]
	if !ok {
		return Candle{}, false
	}
	return s.candles[i], true
}

// Merge appends fresh after s, re-sorts and dedups keeping the last
// occurrence, so rows from fresh replace rows of s at the same timestamp.
func (s Series) Merge(fresh Series) Series {
	all := make([]Candle, 0, len(s.candles)+len(fresh.candles))
	all = append(all, s.candles...)
	all = append(all, fresh.candles...)
	return NewSeries(all...)
}

// Equal 比较两条序列的时间戳与 OHLCV 是否完全一致。
func (s Series) Equal(other Series) bool {
	if len(s.candles) != len(other.candles) {
		return false
	}
	for i := range s.candles {
		a, b := s.candles[i], other.candles[i]
		if !a.Time.Equal(b.Time) || a.Open != b.Open || a.High != b.High ||
			a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			return false
		}
	}
	return true
}
