package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	brcfg "klinesync/internal/config"
	"klinesync/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// hourlyExchange returns one kline per hour in [start, end] for hours
// below `upto`.
type hourlyExchange struct {
	mu    sync.Mutex
	upto  int
	calls int
}

func (h *hourlyExchange) HistoricalKlines(_ context.Context, symbol, interval string, start, end time.Time) ([]market.Kline, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if symbol != "BTCUSDT" || interval != "1h" {
		return nil, fmt.Errorf("unexpected %s %s", symbol, interval)
	}
	var out []market.Kline
	for i := 0; i < h.upto; i++ {
		open := t0.Add(time.Duration(i) * time.Hour)
		if open.Before(start) || open.After(end) {
			continue
		}
		px := fmt.Sprintf("%d", 100+i)
		out = append(out, market.Kline{
			OpenTime:  open.UnixMilli(),
			Open:      px,
			High:      px,
			Low:       px,
			Close:     px,
			Volume:    "2",
			CloseTime: open.Add(time.Hour).UnixMilli() - 1,
		})
	}
	return out, nil
}

func (h *hourlyExchange) setUpto(n int) {
	h.mu.Lock()
	h.upto = n
	h.mu.Unlock()
}

func testConfig(t *testing.T, path string) *brcfg.Config {
	t.Helper()
	cfg, err := brcfg.LoadOptional("")
	require.NoError(t, err)
	cfg.Sync.Symbol = "btc/usdt"
	cfg.Sync.Interval = "1h"
	cfg.Sync.Start = "2024-01-01"
	cfg.Sync.Path = path
	return cfg
}

func TestResolveJob(t *testing.T) {
	now := t0.Add(48 * time.Hour)
	job, err := ResolveJob(brcfg.SyncConfig{Symbol: "eth-usdt", Interval: "15m", Start: "1 Jan, 2024", End: "now"}, now)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", job.Symbol)
	assert.Equal(t, filepath.Join("data", "ETHUSDT_15m.csv"), job.Location)
	assert.Equal(t, t0, job.Start)
	assert.True(t, job.End.IsZero())

	job, err = ResolveJob(brcfg.SyncConfig{Symbol: "BTCUSDT", Interval: "1d", Start: "2024-01-01", End: "2024-01-02", Path: "x.db"}, now)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), job.End)
	assert.Equal(t, "x.db", job.Location)

	_, err = ResolveJob(brcfg.SyncConfig{Interval: "1h"}, now)
	assert.ErrorContains(t, err, "symbol")

	_, err = ResolveJob(brcfg.SyncConfig{Symbol: "BTCUSDT", Interval: "7x"}, now)
	var ui *market.UnsupportedIntervalError
	assert.ErrorAs(t, err, &ui)

	_, err = ResolveJob(brcfg.SyncConfig{Symbol: "BTCUSDT", Interval: "1h", Start: "2024-02-01", End: "2024-01-01"}, now)
	assert.ErrorContains(t, err, "before")

	_, err = ResolveJob(brcfg.SyncConfig{Symbol: "BTCUSDT", Interval: "1h", Start: "someday"}, now)
	assert.ErrorContains(t, err, "sync.start")
}

func TestApp_InitUpdateInfo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "btc.csv")
	ex := &hourlyExchange{upto: 3}
	clock := t0.Add(3*time.Hour + time.Minute)
	a, err := NewApp(testConfig(t, path), WithKlineClient(ex), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	_, err = a.Update(ctx)
	var nf *market.StorageNotFoundError
	require.ErrorAs(t, err, &nf)

	s, err := a.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	ex.setUpto(5)
	clock = t0.Add(5*time.Hour + time.Minute)
	s, err = a.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())

	var buf bytes.Buffer
	require.NoError(t, a.Info(ctx, &buf))
	var got struct {
		Location string    `yaml:"location"`
		Rows     int       `yaml:"rows"`
		First    time.Time `yaml:"first"`
		Last     time.Time `yaml:"last"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, path, got.Location)
	assert.Equal(t, 5, got.Rows)
	assert.True(t, got.First.Equal(t0))
	assert.True(t, got.Last.Equal(t0.Add(4*time.Hour)))
}

func TestApp_SyncBootstrapsThenExtends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "btc.sqlite")
	ex := &hourlyExchange{upto: 2}
	clock := t0.Add(2*time.Hour + time.Minute)
	a, err := NewApp(testConfig(t, path), WithKlineClient(ex), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	res, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Initial)
	assert.Equal(t, 2, res.Series.Len())

	ex.setUpto(4)
	clock = t0.Add(4*time.Hour + time.Minute)
	res, err = a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, res.Initial)
	assert.Equal(t, 2, res.Added())
	assert.Equal(t, 4, res.Series.Len())
}

func TestApp_WatchRunsUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btc.csv")
	cfg := testConfig(t, path)
	cfg.Schedule.Cron = "@every 1h"
	cfg.Schedule.RunImmediately = true
	ex := &hourlyExchange{upto: 3}
	a, err := NewApp(cfg, WithKlineClient(ex), WithClock(func() time.Time { return t0.Add(3*time.Hour + time.Minute) }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestApp_WatchRejectsBadCron(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "btc.csv"))
	cfg.Schedule.Cron = "not a cron"
	a, err := NewApp(cfg, WithKlineClient(&hourlyExchange{}))
	require.NoError(t, err)
	assert.Error(t, a.Watch(context.Background()))
}

func TestStartupSummaryPrint(t *testing.T) {
	cfg := testConfig(t, "data/btc.csv")
	a, err := NewApp(cfg, WithKlineClient(&hourlyExchange{}))
	require.NoError(t, err)
	var buf bytes.Buffer
	a.Summary.Print(&buf)
	assert.Contains(t, buf.String(), "BTCUSDT 1h")
	assert.Contains(t, buf.String(), "data/btc.csv")
	assert.Contains(t, buf.String(), cfg.Schedule.Cron)
}
