package market

import "time"

// Summary 记录某个存储位置上序列的统计信息。
type Summary struct {
	Location string    `yaml:"location"`
	Rows     int       `yaml:"rows"`
	First    time.Time `yaml:"first,omitempty"`
	Last     time.Time `yaml:"last,omitempty"`
}

func (s Series) Summary(location string) Summary {
	out := Summary{Location: location, Rows: s.Len()}
	if first, ok := s.First(); ok {
		out.First = first.Time
	}
	if last, ok := s.Last(); ok {
		out.Last = last.Time
	}
	return out
}
