package market

import (
	"errors"
	"fmt"
)

// ErrEmptySeries 表示对空序列执行增量更新：没有最后一行可作为起点。
var ErrEmptySeries = errors.New("series is empty, run an initial fetch first")

// UnsupportedIntervalError reports an interval code that DurationOf cannot parse.
type UnsupportedIntervalError struct {
	Code string
}

func (e *UnsupportedIntervalError) Error() string {
	return fmt.Sprintf("unsupported interval: %q", e.Code)
}

// StorageNotFoundError is returned when loading a location that does not exist.
type StorageNotFoundError struct {
	Location string
	Err      error
}

func (e *StorageNotFoundError) Error() string {
	return fmt.Sprintf("series not found at %s", e.Location)
}

func (e *StorageNotFoundError) Unwrap() error { return e.Err }

// RemoteFetchError wraps any failure of the exchange call. It is not
// decomposed further; the cause is reachable through errors.Unwrap.
type RemoteFetchError struct {
	Symbol   string
	Interval string
	Err      error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Symbol, e.Interval, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }
