package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"klinesync/internal/market"
)

// SeriesStore 负责整条序列的读取与整体覆盖写入。
type SeriesStore interface {
	Load(ctx context.Context, location string) (market.Series, error)
	Save(ctx context.Context, series market.Series, location string) error
}

// ForLocation picks the backend from the file extension: .db/.sqlite/.sqlite3
// use SQLite, everything else is CSV.
func ForLocation(location string) SeriesStore {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return SQLiteStore{}
	default:
		return CSVStore{}
	}
}

// ByExtension dispatches every call through ForLocation.
type ByExtension struct{}

func (ByExtension) Load(ctx context.Context, location string) (market.Series, error) {
	return ForLocation(location).Load(ctx, location)
}

func (ByExtension) Save(ctx context.Context, series market.Series, location string) error {
	return ForLocation(location).Save(ctx, series, location)
}

func notFound(location string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &market.StorageNotFoundError{Location: location, Err: err}
	}
	return err
}

func statLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return errors.New("location 不能为空")
	}
	if _, err := os.Stat(location); err != nil {
		return notFound(location, err)
	}
	return nil
}

func ensureParent(location string) error {
	if strings.TrimSpace(location) == "" {
		return errors.New("location 不能为空")
	}
	dir := filepath.Dir(location)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
