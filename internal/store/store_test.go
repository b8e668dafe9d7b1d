package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"klinesync/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sample() market.Series {
	return market.NewSeries(
		market.Candle{Time: t0, Open: 62000.5, High: 62500, Low: 61900.25, Close: 62400, Volume: 123.456},
		market.Candle{Time: t0.Add(time.Hour), Open: 62400, High: 62800.1, Low: 62300, Close: 62750.75, Volume: 98.7},
		market.Candle{Time: t0.Add(2*time.Hour + 250*time.Millisecond), Open: 0.1, High: 0.3, Low: 0.1, Close: 0.2, Volume: 0},
	)
}

func TestCSVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "btcusdt_1h.csv")
	s := CSVStore{}

	require.NoError(t, s.Save(ctx, sample(), path))
	loaded, err := s.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(sample()))

	// save(load(X)) == X at file level too
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded, path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCSVStore_Format(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, CSVStore{}.Save(ctx, sample(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,open,high,low,close,volume", lines[0])
	assert.Equal(t, "2024-03-01 00:00:00,62000.5,62500,61900.25,62400,123.456", lines[1])
	assert.Equal(t, "2024-03-01 02:00:00.25,0.1,0.3,0.1,0.2,0", lines[3])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestCSVStore_LoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	_, err := CSVStore{}.Load(context.Background(), path)
	var nf *market.StorageNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, path, nf.Location)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadCSV_ToleratesForeignLayouts(t *testing.T) {
	in := "\ufeffTimestamp,volume,open,high,low,close,extra\n" +
		"2024-03-01 01:00:00.0,2,10,11,9,10.5,x\n" +
		"2024-03-01T00:00:00Z,1,9,10,8,9.5,y\n"
	s, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, t0, s.At(0).Time)
	assert.Equal(t, 9.5, s.At(0).Close)
	assert.Equal(t, 2.0, s.At(1).Volume)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "header")

	_, err = ReadCSV(strings.NewReader("timestamp,open,high,low,close\n"))
	assert.ErrorContains(t, err, "volume")

	_, err = ReadCSV(strings.NewReader("timestamp,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadCSV(strings.NewReader("timestamp,open,high,low,close,volume\n2024-03-01,1,x,1,1,1\n"))
	assert.ErrorContains(t, err, "high")
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "btc.db")
	s := SQLiteStore{}

	require.NoError(t, s.Save(ctx, sample(), path))
	loaded, err := s.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(sample()))

	// full rewrite: a shorter series replaces the table
	short := market.NewSeries(sample().At(0))
	require.NoError(t, s.Save(ctx, short, path))
	loaded, err = s.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := SQLiteStore{}.Load(context.Background(), path)
	var nf *market.StorageNotFoundError
	require.True(t, errors.As(err, &nf))
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "load must not create the file")
}

func TestForLocation(t *testing.T) {
	assert.IsType(t, SQLiteStore{}, ForLocation("data/x.db"))
	assert.IsType(t, SQLiteStore{}, ForLocation("data/x.SQLite"))
	assert.IsType(t, CSVStore{}, ForLocation("data/x.csv"))
	assert.IsType(t, CSVStore{}, ForLocation("data/x"))
}

func TestByExtension(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var s SeriesStore = ByExtension{}
	for _, name := range []string{"a.csv", "a.sqlite3"} {
		path := filepath.Join(dir, name)
		require.NoError(t, s.Save(ctx, sample(), path))
		got, err := s.Load(ctx, path)
		require.NoError(t, err)
		assert.True(t, got.Equal(sample()), name)
	}
}
