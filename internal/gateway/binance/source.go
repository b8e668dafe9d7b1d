package binance

import (
	"context"
	"fmt"
	"time"

	"klinesync/internal/market"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

// Source 基于 go-binance SDK 拉取现货或 U 本位合约的历史 K 线。
type Source struct {
	cfg     Config
	spot    *gobinance.Client
	futures *futures.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	if err := final.validate(); err != nil {
		return nil, err
	}
	httpClient, err := newHTTPClient(final)
	if err != nil {
		return nil, err
	}
	s := &Source{cfg: final}
	switch final.Market {
	case MarketFutures:
		client := futures.NewClient(final.APIKey, final.SecretKey)
		client.BaseURL = final.RESTBaseURL
		client.HTTPClient = httpClient
		s.futures = client
	default:
		client := gobinance.NewClient(final.APIKey, final.SecretKey)
		client.BaseURL = final.RESTBaseURL
		client.HTTPClient = httpClient
		s.spot = client
	}
	return s, nil
}

func (s *Source) HistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Kline, error) {
	if s == nil || (s.spot == nil && s.futures == nil) {
		return nil, fmt.Errorf("binance source not initialized")
	}
	fetch := s.spotPage
	if s.futures != nil {
		fetch = s.futuresPage
	}
	return paginate(ctx, fetch, symbol, interval, start, end, s.cfg.PageLimit)
}

func (s *Source) spotPage(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]market.Kline, error) {
	kls, err := s.spot.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMs).
		EndTime(endMs).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Kline, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Kline{
			OpenTime:                 kl.OpenTime,
			Open:                     kl.Open,
			High:                     kl.High,
			Low:                      kl.Low,
			Close:                    kl.Close,
			Volume:                   kl.Volume,
			CloseTime:                kl.CloseTime,
			QuoteAssetVolume:         kl.QuoteAssetVolume,
			TradeNum:                 kl.TradeNum,
			TakerBuyBaseAssetVolume:  kl.TakerBuyBaseAssetVolume,
			TakerBuyQuoteAssetVolume: kl.TakerBuyQuoteAssetVolume,
		})
	}
	return out, nil
}

func (s *Source) futuresPage(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]market.Kline, error) {
	kls, err := s.futures.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMs).
		EndTime(endMs).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Kline, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Kline{
			OpenTime:                 kl.OpenTime,
			Open:                     kl.Open,
			High:                     kl.High,
			Low:                      kl.Low,
			Close:                    kl.Close,
			Volume:                   kl.Volume,
			CloseTime:                kl.CloseTime,
			QuoteAssetVolume:         kl.QuoteAssetVolume,
			TradeNum:                 kl.TradeNum,
			TakerBuyBaseAssetVolume:  kl.TakerBuyBaseAssetVolume,
			TakerBuyQuoteAssetVolume: kl.TakerBuyQuoteAssetVolume,
		})
	}
	return out, nil
}
