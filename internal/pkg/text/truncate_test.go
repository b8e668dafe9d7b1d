package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "网...", Truncate("网关错误", 4))
	assert.Equal(t, "网关...", Truncate("网关错误", 6))
}
