package binance

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	MarketSpot    = "spot"
	MarketFutures = "futures"

	DriverSDK  = "sdk"
	DriverREST = "rest"

	spotBaseURL    = "https://api.binance.com"
	futuresBaseURL = "https://fapi.binance.com"

	spotMaxLimit    = 1000
	futuresMaxLimit = 1500
)

type Config struct {
	Market      string
	Driver      string
	RESTBaseURL string
	APIKey      string
	SecretKey   string
	HTTPTimeout time.Duration
	PageLimit   int

	ProxyEnabled bool
	RESTProxyURL string
}

func (c *Config) withDefaults() Config {
	out := *c
	out.Market = strings.ToLower(strings.TrimSpace(out.Market))
	if out.Market == "" {
		out.Market = MarketSpot
	}
	out.Driver = strings.ToLower(strings.TrimSpace(out.Driver))
	if out.Driver == "" {
		out.Driver = DriverSDK
	}
	out.RESTBaseURL = strings.TrimRight(strings.TrimSpace(out.RESTBaseURL), "/")
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = spotBaseURL
		if out.Market == MarketFutures {
			out.RESTBaseURL = futuresBaseURL
		}
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	maxLimit := spotMaxLimit
	if out.Market == MarketFutures {
		maxLimit = futuresMaxLimit
	}
	if out.PageLimit <= 0 || out.PageLimit > maxLimit {
		out.PageLimit = maxLimit
	}
	out.RESTProxyURL = strings.TrimSpace(out.RESTProxyURL)
	return out
}

func (c Config) validate() error {
	switch c.Market {
	case MarketSpot, MarketFutures:
	default:
		return fmt.Errorf("unsupported binance market: %s", c.Market)
	}
	switch c.Driver {
	case DriverSDK, DriverREST:
	default:
		return fmt.Errorf("unsupported binance driver: %s", c.Driver)
	}
	return nil
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.ProxyEnabled && cfg.RESTProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	return httpClient, nil
}
