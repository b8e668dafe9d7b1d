package gateway

import (
	"fmt"
	"strings"

	"klinesync/internal/config"
	"klinesync/internal/gateway/binance"
)

// NewKlineSourceFromConfig builds the exchange client selected by exchange.driver.
func NewKlineSourceFromConfig(cfg *config.Config) (binance.KlineSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	ex := cfg.Exchange
	if name := strings.ToLower(strings.TrimSpace(ex.Name)); name != "" && name != "binance" {
		return nil, fmt.Errorf("unsupported exchange: %s", ex.Name)
	}
	bc := binance.Config{
		Market:       ex.Market,
		Driver:       ex.Driver,
		RESTBaseURL:  ex.RESTBaseURL,
		APIKey:       ex.APIKey,
		SecretKey:    ex.SecretKey,
		HTTPTimeout:  ex.Timeout(),
		PageLimit:    ex.PageLimit,
		ProxyEnabled: ex.Proxy.Enabled,
		RESTProxyURL: ex.Proxy.RESTURL,
	}
	switch strings.ToLower(strings.TrimSpace(ex.Driver)) {
	case "", binance.DriverSDK:
		return binance.New(bc)
	case binance.DriverREST:
		return binance.NewREST(bc)
	default:
		return nil, fmt.Errorf("unsupported exchange driver: %s", ex.Driver)
	}
}
