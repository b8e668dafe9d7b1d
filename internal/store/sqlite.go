package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"klinesync/internal/market"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one series per database file in a candles table.
// Save replaces the whole table inside one transaction.
type SQLiteStore struct{}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS candles (
			open_time INTEGER PRIMARY KEY,
			open      REAL NOT NULL,
			high      REAL NOT NULL,
			low       REAL NOT NULL,
			close     REAL NOT NULL,
			volume    REAL NOT NULL
		);`)
	return err
}

func (SQLiteStore) Load(ctx context.Context, location string) (market.Series, error) {
	// sql.Open 会静默创建缺失的文件，先检查存在性
	if err := statLocation(location); err != nil {
		return market.Series{}, err
	}
	db, err := openDB(location)
	if err != nil {
		return market.Series{}, err
	}
	defer db.Close()
	if err := ensureSchema(ctx, db); err != nil {
		return market.Series{}, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT open_time, open, high, low, close, volume
		FROM candles ORDER BY open_time ASC`)
	if err != nil {
		return market.Series{}, err
	}
	defer rows.Close()
	var list []market.Candle
	for rows.Next() {
		var (
			ts int64
			c  market.Candle
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return market.Series{}, err
		}
		c.Time = time.UnixMilli(ts).UTC()
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return market.Series{}, err
	}
	return market.NewSeries(list...), nil
}

func (SQLiteStore) Save(ctx context.Context, series market.Series, location string) error {
	if err := ensureParent(location); err != nil {
		return err
	}
	db, err := openDB(location)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := ensureSchema(ctx, db); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM candles`); err != nil {
		_ = tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, c := range series.Candles() {
		if _, err := stmt.ExecContext(ctx, c.OpenTime(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
