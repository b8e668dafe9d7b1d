package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBinance(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT":       "BTCUSDT",
		"btc/usdt":      "BTCUSDT",
		"ETH/USDT:USDT": "ETHUSDT",
		"sol-usdc":      "SOLUSDC",
		" ethbtc ":      "ETHBTC",
		"XYZABC":        "XYZABC",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToBinance(in), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "BTC/USDT", Normalize("btcusdt"))
	assert.Equal(t, "", Normalize("unknown"))
}
