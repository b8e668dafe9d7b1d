package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"klinesync/internal/app"
	kcfg "klinesync/internal/config"
	"klinesync/internal/logger"

	flag "github.com/spf13/pflag"
)

const usage = `klinesync keeps a local candle file in sync with Binance.

Usage:
  klinesync [flags] <command>

Commands:
  init    download [start, end] and overwrite the output file
  update  append candles newer than the last stored row
  sync    update, or init when the output file does not exist yet
  info    print a YAML summary of the output file
  watch   run sync on the configured cron schedule until interrupted

Flags:
`

var errUsage = errors.New("usage")

// options 保存命令行参数；只有显式传入的参数才会覆盖配置文件。
type options struct {
	config   string
	symbol   string
	interval string
	out      string
	logLevel string
	logPath  string
	start    string
	end      string
	cron     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Fatalf("运行失败: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("klinesync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVarP(&opts.config, "config", "c", "", "config file (default $KLINESYNC_CONFIG or configs/config.yaml)")
	fs.StringVarP(&opts.symbol, "symbol", "s", "", "trading pair, e.g. BTCUSDT or BTC/USDT")
	fs.StringVarP(&opts.interval, "interval", "i", "", "candle interval code: 1m, 15m, 1h, 4h, 1d, 1w, 1M")
	fs.StringVarP(&opts.out, "out", "o", "", "output file (.csv, or .db/.sqlite for SQLite)")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")
	fs.StringVar(&opts.logPath, "log-file", "", "also append logs to this file")
	fs.StringVar(&opts.start, "start", "", "range start for init/sync, e.g. \"1 Jan, 2020\" or 2020-01-01")
	fs.StringVar(&opts.end, "end", "", "range end for init/sync (default now)")
	fs.StringVar(&opts.cron, "cron", "", "cron spec for watch, e.g. \"0 */5 * * * *\"")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	command := strings.ToLower(fs.Arg(0))
	switch command {
	case "init", "update", "sync", "info", "watch":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return errUsage
	}

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	applyFlags(fs, &opts, cfg)

	logFile, err := logger.SetupFile(cfg.App.LogPath)
	if err != nil {
		return fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)

	a, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	logger.Debugf("command=%s symbol=%s interval=%s location=%s",
		command, a.Job().Symbol, a.Job().Interval, a.Job().Location)

	switch command {
	case "init":
		_, err = a.Init(ctx)
	case "update":
		_, err = a.Update(ctx)
	case "sync":
		_, err = a.Sync(ctx)
	case "info":
		err = a.Info(ctx, stdout)
	case "watch":
		err = a.Watch(ctx)
	}
	return err
}

// loadConfig 按 --config、$KLINESYNC_CONFIG、configs/config.yaml 的顺序查找；
// 只有默认路径允许不存在。
func loadConfig(explicit string) (*kcfg.Config, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		return kcfg.Load(path)
	}
	if path := strings.TrimSpace(os.Getenv("KLINESYNC_CONFIG")); path != "" {
		return kcfg.Load(path)
	}
	return kcfg.LoadOptional("configs/config.yaml")
}

func applyFlags(fs *flag.FlagSet, opts *options, cfg *kcfg.Config) {
	set := func(name, value string, dst *string) {
		if fs.Changed(name) {
			*dst = value
		}
	}
	set("symbol", opts.symbol, &cfg.Sync.Symbol)
	set("interval", opts.interval, &cfg.Sync.Interval)
	// 配置里的 path 属于配置里的品种/周期，换了品种就回到默认路径
	if (fs.Changed("symbol") || fs.Changed("interval")) && !fs.Changed("out") {
		cfg.Sync.Path = ""
	}
	set("out", opts.out, &cfg.Sync.Path)
	set("start", opts.start, &cfg.Sync.Start)
	set("end", opts.end, &cfg.Sync.End)
	set("log-level", opts.logLevel, &cfg.App.LogLevel)
	set("log-file", opts.logPath, &cfg.App.LogPath)
	set("cron", opts.cron, &cfg.Schedule.Cron)
}
