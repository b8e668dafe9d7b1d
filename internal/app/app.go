package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	brcfg "klinesync/internal/config"
	"klinesync/internal/gateway"
	"klinesync/internal/history"
	"klinesync/internal/logger"
	"klinesync/internal/market"
	"klinesync/internal/pkg/circuit"
	"klinesync/internal/scheduler"
	"klinesync/internal/store"

	"gopkg.in/yaml.v3"
)

// watch 退出时等待正在运行的同步任务的最长时间
const stopTimeout = 30 * time.Second

// App 负责命令级编排：配置 → 行情客户端/存储 → Fetcher/Updater。
type App struct {
	cfg     *brcfg.Config
	job     Job
	store   store.SeriesStore
	fetcher *history.Fetcher
	updater *history.Updater
	Summary *StartupSummary
}

type Option func(*builder)

type builder struct {
	client history.KlineClient
	store  store.SeriesStore
	now    func() time.Time
}

// WithKlineClient 替换由配置构建的交易所客户端（测试/回放用）。
func WithKlineClient(c history.KlineClient) Option {
	return func(b *builder) { b.client = c }
}

func WithStore(s store.SeriesStore) Option {
	return func(b *builder) { b.store = s }
}

func WithClock(now func() time.Time) Option {
	return func(b *builder) { b.now = now }
}

// NewApp 根据配置构建应用对象（不发起任何网络请求）。
func NewApp(cfg *brcfg.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	b := &builder{store: store.ByExtension{}, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	job, err := ResolveJob(cfg.Sync, b.now())
	if err != nil {
		return nil, err
	}
	if b.client == nil {
		client, err := gateway.NewKlineSourceFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("init exchange client: %w", err)
		}
		b.client = client
	}
	fetcher := history.NewFetcher(b.client, b.store,
		history.WithDropUnclosed(cfg.Sync.DropUnclosed),
		history.WithClock(b.now),
	)
	return &App{
		cfg:     cfg,
		job:     job,
		store:   b.store,
		fetcher: fetcher,
		updater: history.NewUpdater(fetcher, b.store),
		Summary: newStartupSummary(cfg, job),
	}, nil
}

func (a *App) Job() Job { return a.job }

// Init downloads the configured range and overwrites the location.
func (a *App) Init(ctx context.Context) (market.Series, error) {
	j := a.job
	return a.fetcher.FetchInitial(ctx, j.Symbol, j.Interval, j.Start, j.End, j.Location)
}

// Update extends an existing location; a missing one is an error.
func (a *App) Update(ctx context.Context) (market.Series, error) {
	j := a.job
	series, err := a.store.Load(ctx, j.Location)
	if err != nil {
		return market.Series{}, err
	}
	return a.updater.Update(ctx, j.Symbol, j.Interval, series, j.Location)
}

func (a *App) Sync(ctx context.Context) (history.SyncResult, error) {
	j := a.job
	return a.updater.Sync(ctx, history.SyncRequest{
		Symbol:   j.Symbol,
		Interval: j.Interval,
		Location: j.Location,
		Start:    j.Start,
		End:      j.End,
	})
}

// Info writes the summary of the stored series as YAML.
func (a *App) Info(ctx context.Context, w io.Writer) error {
	series, err := a.store.Load(ctx, a.job.Location)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(series.Summary(a.job.Location)); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}

// Watch runs Sync on the configured cron schedule until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	sched, err := scheduler.New(ctx, a.cfg.Schedule.Cron, func(ctx context.Context) error {
		_, err := a.Sync(ctx)
		return err
	})
	if err != nil {
		return err
	}
	sched.Name = a.job.Symbol + "/" + a.job.Interval
	sched.RunImmediately = a.cfg.Schedule.RunImmediately
	sched.Breaker = circuit.New(sched.Name, a.cfg.Schedule.MaxFailures, a.cfg.Schedule.Cooldown())
	if a.Summary != nil {
		a.Summary.Print(logger.Writer())
	}
	sched.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
