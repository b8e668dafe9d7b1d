package gateway

import (
	"testing"

	"klinesync/internal/config"
	"klinesync/internal/gateway/binance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKlineSourceFromConfig(t *testing.T) {
	cfg, err := config.LoadOptional("")
	require.NoError(t, err)

	src, err := NewKlineSourceFromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &binance.Source{}, src)

	cfg.Exchange.Driver = "rest"
	src, err = NewKlineSourceFromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &binance.RESTSource{}, src)

	cfg.Exchange.Driver = "ws"
	_, err = NewKlineSourceFromConfig(cfg)
	assert.Error(t, err)

	cfg.Exchange.Driver = "sdk"
	cfg.Exchange.Name = "okx"
	_, err = NewKlineSourceFromConfig(cfg)
	assert.Error(t, err)

	_, err = NewKlineSourceFromConfig(nil)
	assert.Error(t, err)
}
