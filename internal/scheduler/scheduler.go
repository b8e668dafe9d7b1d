package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"klinesync/internal/logger"
	"klinesync/internal/pkg/circuit"

	"github.com/robfig/cron/v3"
)

// Task 是一次周期任务；返回的错误只记录日志，不会终止调度。
type Task func(ctx context.Context) error

var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs a Task on a cron schedule. A run that is still in progress
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	Name           string
	RunImmediately bool
	// Breaker 非空时，熔断期间的触发直接跳过。
	Breaker *circuit.Breaker

	spec     string
	schedule cron.Schedule
	cron     *cron.Cron
	job      cron.Job
	task     Task

	ctx    context.Context
	cancel context.CancelFunc

	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64
	running  atomic.Bool
}

// New parses spec (five fields, an optional leading seconds field, or a
// descriptor such as "@every 5m") and prepares a scheduler bound to ctx.
func New(ctx context.Context, spec string, task Task) (*Scheduler, error) {
	if task == nil {
		return nil, errors.New("scheduler: task is nil")
	}
	spec = strings.TrimSpace(spec)
	schedule, err := specParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron %q: %w", spec, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		spec:     spec,
		schedule: schedule,
		task:     task,
		ctx:      runCtx,
		cancel:   cancel,
	}
	cl := cronLogger{l: logger.With("component", "scheduler")}
	s.cron = cron.New(cron.WithParser(specParser), cron.WithLogger(cl), cron.WithLocation(time.UTC))
	s.job = cron.NewChain(cron.Recover(cl), s.skipIfRunning()).Then(cron.FuncJob(s.run))
	return s, nil
}

func (s *Scheduler) prefix() string {
	if s.Name == "" {
		return "Scheduler"
	}
	return "Scheduler[" + s.Name + "]"
}

// Start registers the job and starts the cron loop in the background.
func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Schedule(s.schedule, s.job)
	now := time.Now().UTC()
	logger.Infof("%s: started cron=%q run_immediately=%v next=%s",
		s.prefix(), s.spec, s.RunImmediately, s.schedule.Next(now).Format(time.RFC3339))
	if s.RunImmediately {
		logger.Infof("%s: RunImmediately=true, execute once before first tick", s.prefix())
		go s.job.Run()
	}
	s.cron.Start()
}

// RunNow executes the task synchronously, unless a run is already in flight.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

// Stop stops scheduling and waits for a running task to return or for ctx
// to expire; in the latter case the task's context is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warnf("%s: stop timed out, cancelling running task", s.prefix())
		return ctx.Err()
	}
	for s.running.Load() {
		select {
		case <-ctx.Done():
			logger.Warnf("%s: stop timed out, cancelling running task", s.prefix())
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	logger.Infof("%s: stopped runs=%d failures=%d skipped=%d",
		s.prefix(), s.runs.Load(), s.failures.Load(), s.skipped.Load())
	return nil
}

// Next returns the next scheduled fire time after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now.UTC())
}

func (s *Scheduler) Runs() int64     { return s.runs.Load() }
func (s *Scheduler) Failures() int64 { return s.failures.Load() }
func (s *Scheduler) Skipped() int64  { return s.skipped.Load() }

func (s *Scheduler) run() {
	if !s.Breaker.Allow() {
		s.skipped.Add(1)
		logger.Warnf("%s: circuit open after repeated failures, skip", s.prefix())
		return
	}
	started := time.Now()
	n := s.runs.Add(1)
	err := s.task(s.ctx)
	took := time.Since(started).Truncate(time.Millisecond)
	if err != nil {
		s.failures.Add(1)
		s.Breaker.RecordFailure()
		logger.Errorf("%s: run #%d failed after %s: %v", s.prefix(), n, took, err)
		return
	}
	s.Breaker.RecordSuccess()
	logger.Infof("%s: run #%d ok in %s, 下一次执行=%s",
		s.prefix(), n, took, s.schedule.Next(time.Now().UTC()).Format(time.RFC3339))
}

// skipIfRunning behaves like cron.SkipIfStillRunning but also counts and
// logs skipped ticks, and covers RunNow as well as scheduled runs.
func (s *Scheduler) skipIfRunning() cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			if !s.running.CompareAndSwap(false, true) {
				s.skipped.Add(1)
				logger.Warnf("%s: previous run still in progress, skip", s.prefix())
				return
			}
			defer s.running.Store(false)
			j.Run()
		})
	}
}

// cronLogger adapts robfig/cron's logger to slog; cron's chatty info lines
// are demoted to debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
