package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"klinesync/internal/market"
	"klinesync/internal/pkg/text"

	"github.com/tidwall/gjson"
)

// RESTSource 直接请求 /api/v3/klines 或 /fapi/v1/klines，用 gjson 解析原始数组。
// 适用于兼容 Binance 协议的镜像站点。
type RESTSource struct {
	cfg    Config
	path   string
	client *http.Client
}

// 非 JSON 错误响应（如网关 HTML 页面）只保留前 maxErrorBody 字节
const maxErrorBody = 200

func NewREST(cfg Config) (*RESTSource, error) {
	final := cfg.withDefaults()
	if err := final.validate(); err != nil {
		return nil, err
	}
	httpClient, err := newHTTPClient(final)
	if err != nil {
		return nil, err
	}
	endpoint := "/api/v3/klines"
	if final.Market == MarketFutures {
		endpoint = "/fapi/v1/klines"
	}
	return &RESTSource{cfg: final, path: endpoint, client: httpClient}, nil
}

func (r *RESTSource) HistoricalKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Kline, error) {
	return paginate(ctx, r.fetchPage, symbol, interval, start, end, r.cfg.PageLimit)
}

func (r *RESTSource) fetchPage(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]market.Kline, error) {
	u, err := url.Parse(r.cfg.RESTBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	u.Path = path.Join("/", u.Path, r.path)
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if r.cfg.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", r.cfg.APIKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(body, "msg"); msg.Exists() {
			return nil, fmt.Errorf("binance status %d: code=%d msg=%s", resp.StatusCode, gjson.GetBytes(body, "code").Int(), msg.String())
		}
		return nil, fmt.Errorf("binance status %d: %s", resp.StatusCode, text.Truncate(string(body), maxErrorBody))
	}
	return decodeKlines(body)
}

func decodeKlines(body []byte) ([]market.Kline, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid kline payload")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("kline payload is not an array")
	}
	rows := root.Array()
	out := make([]market.Kline, 0, len(rows))
	for i, row := range rows {
		f := row.Array()
		if len(f) < 11 {
			return nil, fmt.Errorf("kline record %d has %d fields", i, len(f))
		}
		k := market.Kline{
			OpenTime:                 f[0].Int(),
			Open:                     f[1].String(),
			High:                     f[2].String(),
			Low:                      f[3].String(),
			Close:                    f[4].String(),
			Volume:                   f[5].String(),
			CloseTime:                f[6].Int(),
			QuoteAssetVolume:         f[7].String(),
			TradeNum:                 f[8].Int(),
			TakerBuyBaseAssetVolume:  f[9].String(),
			TakerBuyQuoteAssetVolume: f[10].String(),
		}
		if len(f) > 11 {
			k.Ignore = f[11].String()
		}
		out = append(out, k)
	}
	return out, nil
}
