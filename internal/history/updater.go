package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"klinesync/internal/logger"
	"klinesync/internal/market"
	"klinesync/internal/store"

	"github.com/google/uuid"
)

type Updater struct {
	fetcher *Fetcher
	store   store.SeriesStore
}

func NewUpdater(fetcher *Fetcher, st store.SeriesStore) *Updater {
	return &Updater{fetcher: fetcher, store: st}
}

// Update fetches everything after the last row of series, merges it in
// (fresh rows win on equal timestamps), rewrites location and returns the
// merged series. Nothing is written unless the fetch succeeds.
func (u *Updater) Update(ctx context.Context, symbol, interval string, series market.Series, location string) (market.Series, error) {
	last, ok := series.Last()
	if !ok {
		return market.Series{}, market.ErrEmptySeries
	}
	step, err := market.DurationOf(interval)
	if err != nil {
		return market.Series{}, err
	}
	nextStart := last.Time.Add(step)
	fresh, err := u.fetcher.FetchRange(ctx, symbol, interval, nextStart, time.Time{})
	if err != nil {
		return market.Series{}, err
	}
	merged := series.Merge(fresh)
	if err := u.store.Save(ctx, merged, location); err != nil {
		return market.Series{}, fmt.Errorf("save %s: %w", location, err)
	}
	logger.Infof("Updated historical data saved to '%s' (fetched %d, total %d)", location, fresh.Len(), merged.Len())
	return merged, nil
}

// SyncRequest 描述一次 load-or-init 同步。End 只作用于首次全量拉取。
type SyncRequest struct {
	Symbol   string
	Interval string
	Location string
	Start    time.Time
	End      time.Time
}

type SyncResult struct {
	RunID   string
	Initial bool
	Before  int
	Series  market.Series
}

// Added 返回本次新增的行数（被覆盖的行不计入）。
func (r SyncResult) Added() int {
	return r.Series.Len() - r.Before
}

// Sync loads location and extends it; a missing or empty location gets an
// initial fetch from req.Start instead.
func (u *Updater) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	res := SyncResult{RunID: uuid.NewString()}
	log := logger.With("run_id", res.RunID, "symbol", req.Symbol, "interval", req.Interval)

	series, err := u.store.Load(ctx, req.Location)
	var nf *market.StorageNotFoundError
	switch {
	case errors.As(err, &nf):
		log.Info("no stored series, running initial fetch", "location", req.Location)
		res.Initial = true
	case err != nil:
		return res, err
	case series.IsEmpty():
		log.Info("stored series is empty, running initial fetch", "location", req.Location)
		res.Initial = true
	}

	if res.Initial {
		out, err := u.fetcher.FetchInitial(ctx, req.Symbol, req.Interval, req.Start, req.End, req.Location)
		if err != nil {
			return res, err
		}
		res.Series = out
	} else {
		res.Before = series.Len()
		out, err := u.Update(ctx, req.Symbol, req.Interval, series, req.Location)
		if err != nil {
			return res, err
		}
		res.Series = out
	}
	log.Info("sync finished", "initial", res.Initial, "rows", res.Series.Len(), "added", res.Added())
	return res, nil
}
