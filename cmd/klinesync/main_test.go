package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hour0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// restExchange serves `hours` closed hourly klines starting at hour0.
func restExchange(t *testing.T, hours *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)
		var rows []string
		for i := 0; i < *hours; i++ {
			open := hour0.Add(time.Duration(i) * time.Hour).UnixMilli()
			if open < start || open > end {
				continue
			}
			rows = append(rows, fmt.Sprintf(`[%d,"1","2","0.5","1.5","10",%d,"15",3,"5","7","0"]`,
				open, open+time.Hour.Milliseconds()-1))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	body := fmt.Sprintf(`exchange:
  driver: rest
  rest_base_url: %s
  timeout_seconds: 5
sync:
  symbol: BTC/USDT
  interval: 1h
  start: "2024-01-01"
  drop_unclosed: false
`, baseURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_InitUpdateInfo(t *testing.T) {
	hours := 3
	srv := restExchange(t, &hours)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)
	out := filepath.Join(dir, "out", "btc.csv")
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"--config", cfgPath, "--out", out, "--end", "2024-01-01 02:00:00", "init"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,open,high,low,close,volume", lines[0])
	assert.Equal(t, "2024-01-01 00:00:00,1,2,0.5,1.5,10", lines[1])

	hours = 5
	require.NoError(t, run(ctx, []string{"update", "-c", cfgPath, "-o", out}, &stdout, &stderr))

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"-c", cfgPath, "-o", out, "info"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "rows: 5")
	assert.Contains(t, stdout.String(), "location: "+out)
}

func TestRun_SyncWithFlagOverrides(t *testing.T) {
	hours := 2
	srv := restExchange(t, &hours)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)
	out := filepath.Join(dir, "btc.db")

	var stdout, stderr bytes.Buffer
	args := []string{"-c", cfgPath, "-o", out, "--start", "1 Jan, 2024", "--log-level", "debug", "sync"}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))
	_, err := os.Stat(out)
	assert.NoError(t, err)

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"-c", cfgPath, "-o", out, "info"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "rows: 2")
}

func TestRun_SymbolFlagIgnoresConfiguredPath(t *testing.T) {
	hours := 2
	srv := restExchange(t, &hours)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfgPath := writeConfig(t, dir, srv.URL)
	btc := filepath.Join(dir, "BTCUSDT_1h.csv")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fmt.Fprintf(f, "  path: %s\n", btc)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	err = run(ctx, []string{"--config", cfgPath, "--end", "2024-01-01 01:00:00", "init"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	before, err := os.ReadFile(btc)
	require.NoError(t, err)

	hours = 3
	err = run(ctx, []string{"--config", cfgPath, "--symbol", "ETHUSDT", "--end", "2024-01-01 02:00:00", "init"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	after, err := os.ReadFile(btc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	eth, err := os.ReadFile(filepath.Join(dir, "data", "ETHUSDT_1h.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(eth)), "\n"), 4)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	assert.ErrorIs(t, run(ctx, nil, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"frobnicate"}, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"--no-such-flag", "sync"}, &stdout, &stderr), errUsage)
	assert.NoError(t, run(ctx, []string{"--help"}, &stdout, &stderr))

	err := run(ctx, []string{"-c", filepath.Join(t.TempDir(), "missing.yaml"), "info"}, &stdout, &stderr)
	assert.Error(t, err)

	hours := 0
	srv := restExchange(t, &hours)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)
	err = run(ctx, []string{"-c", cfgPath, "-o", filepath.Join(dir, "none.csv"), "update"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "none.csv")

	err = run(ctx, []string{"-c", cfgPath, "-i", "3x", "info"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "3x")
}
