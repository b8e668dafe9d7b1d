package market

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MonthApprox is the fixed length used for the "M" unit; calendar months are not modeled.
const MonthApprox = 30 * 24 * time.Hour

// DurationOf parses "15m", "4h", "1d", "1w", "1M" into time.Duration.
// Units are case-sensitive: "m" is minute, "M" is month.
func DurationOf(interval string) (time.Duration, error) {
	code := strings.TrimSpace(interval)
	if len(code) < 2 {
		return 0, &UnsupportedIntervalError{Code: interval}
	}
	unit := code[len(code)-1]
	digits := code[:len(code)-1]
	// 只接受纯数字，拒绝 "+5m" 这类带符号写法
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, &UnsupportedIntervalError{Code: interval}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, &UnsupportedIntervalError{Code: interval}
	}
	var step time.Duration
	switch unit {
	case 'm':
		step = time.Minute
	case 'h':
		step = time.Hour
	case 'd':
		step = 24 * time.Hour
	case 'w':
		step = 7 * 24 * time.Hour
	case 'M':
		step = MonthApprox
	default:
		return 0, &UnsupportedIntervalError{Code: interval}
	}
	if n > math.MaxInt64/int64(step) {
		return 0, &UnsupportedIntervalError{Code: interval}
	}
	return time.Duration(n) * step, nil
}
