package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"klinesync/internal/market"
)

// TimeLayout 是 timestamp 列的写出格式（UTC），亚秒部分仅在非零时出现。
const TimeLayout = "2006-01-02 15:04:05.999"

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// fractional seconds after the seconds field are accepted by every layout here
var parseLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CSVStore persists a series as a delimited text file with a header row.
type CSVStore struct{}

func (CSVStore) Load(ctx context.Context, location string) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return market.Series{}, err
	}
	f, err := os.Open(location)
	if err != nil {
		return market.Series{}, notFound(location, err)
	}
	defer f.Close()
	series, err := ReadCSV(f)
	if err != nil {
		return market.Series{}, fmt.Errorf("read %s: %w", location, err)
	}
	return series, nil
}

// Save writes to a temp file beside location and renames it over the target.
func (CSVStore) Save(ctx context.Context, series market.Series, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureParent(location); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(location), "."+filepath.Base(location)+".*.tmp")
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := WriteCSV(tmp, series); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return err
	}
	committed = true
	return nil
}

// WriteCSV 写出列头与全部行。
func WriteCSV(w io.Writer, series market.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	row := make([]string, len(csvHeader))
	for _, c := range series.Candles() {
		row[0] = c.Time.UTC().Format(TimeLayout)
		row[1] = formatPlainFloat(c.Open)
		row[2] = formatPlainFloat(c.High)
		row[3] = formatPlainFloat(c.Low)
		row[4] = formatPlainFloat(c.Close)
		row[5] = formatPlainFloat(c.Volume)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV locates columns by header name, so extra or reordered columns are tolerated.
func ReadCSV(r io.Reader) (market.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return market.Series{}, errors.New("missing header row")
	}
	if err != nil {
		return market.Series{}, err
	}
	cols, err := resolveColumns(head)
	if err != nil {
		return market.Series{}, err
	}
	var candles []market.Candle
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return market.Series{}, err
		}
		line, _ := cr.FieldPos(0)
		c, err := parseRow(rec, cols)
		if err != nil {
			return market.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, c)
	}
	return market.NewSeries(candles...), nil
}

func resolveColumns(head []string) ([6]int, error) {
	pos := make(map[string]int, len(head))
	for i, name := range head {
		name = strings.TrimPrefix(name, "\ufeff")
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var cols [6]int
	for i, name := range csvHeader {
		idx, ok := pos[name]
		if !ok {
			return cols, fmt.Errorf("header missing column %q", name)
		}
		cols[i] = idx
	}
	return cols, nil
}

func parseRow(rec []string, cols [6]int) (market.Candle, error) {
	ts, err := parseTimestamp(rec[cols[0]])
	if err != nil {
		return market.Candle{}, err
	}
	var vals [5]float64
	for i := 1; i < len(cols); i++ {
		raw := strings.TrimSpace(rec[cols[i]])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("invalid %s %q", csvHeader[i], raw)
		}
		vals[i-1] = v
	}
	return market.Candle{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func formatPlainFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
