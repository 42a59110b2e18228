// Package app wires the configured services into the long-running widget
// daemon: the scheduler drives update cycles, each cycle invokes the update
// command, appends to the cycle log and pokes Rainmeter to redraw.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"aqwidget/internal/config"
	"aqwidget/internal/cyclelog"
	"aqwidget/internal/metrics"
	"aqwidget/internal/rainmeter"
	"aqwidget/internal/runner"
	"aqwidget/internal/scheduler"
	"aqwidget/pkg/logx"
)

const (
	defaultSchedule = "300s"
	defaultCycleLog = "./widget_log.txt"
	cycleJobName    = "update-cycle"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	sched *scheduler.Service
	cyc   *cyclelog.Log
	run   *runner.Runner
	rec   *metrics.Recorder

	rain rainmeter.Config
	res  string // resources dir, for gauge refresh from the state file

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	timeout, err := config.ParseDurationOrDefault("loop.timeout", cfg.Loop.Timeout, 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cyclePath := cfg.Loop.CycleLog
	if cyclePath == "" {
		cyclePath = defaultCycleLog
	}
	cyc, err := cyclelog.Open(cyclePath)
	if err != nil {
		return nil, fmt.Errorf("open cycle log: %w", err)
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New(log)
	}

	// The self-invocation default must carry the daemon's config path so the
	// child sees the same locations and resources dir.
	command := cfg.Loop.UpdateCommand
	if len(command) == 0 {
		if exe, err := os.Executable(); err == nil {
			command = []string{exe, "-config", cfgPath, "update"}
		}
	}

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		cyc:     cyc,
		run:     runner.New(runner.Config{Command: command, Timeout: timeout}),
		rec:     rec,
		rain:    rainmeter.Config{Paths: cfg.Rainmeter.Paths},
		res:     cfg.Rainmeter.Resources,
	}

	sched := scheduler.New(scheduler.Config{
		DefaultTimeout: timeout + 30*time.Second,
		Timezone:       cfg.Loop.Timezone,
	}, log.With(logx.String("comp", "scheduler")))

	schedule := cfg.Loop.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	if err := sched.Add(cycleJobName, schedule, 0, a.cycle); err != nil {
		cyc.Close()
		return nil, err
	}
	a.sched = sched

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	if a.rec != nil {
		if err := a.rec.Serve(a.cfgm.Get().Metrics.Addr); err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(wctx); err != nil && wctx.Err() == nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	sub := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	a.sched.Start(ctx)
	a.notifyReady()
	a.startWatchdog(wctx)
	a.log.Info("widget daemon started", logx.String("config", a.cfgPath))
	return nil
}

// applyReload applies the hot-reloadable subset of a new config. Logging
// sinks swap in place; schedule and command changes need a restart and are
// only reported.
func (a *App) applyReload(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.log.Info("config reloaded; schedule or command changes take effect on restart")
}

func (a *App) Stop(ctx context.Context) error {
	a.notifyStopping()
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.sched.Stop(ctx)
	a.wg.Wait()
	if a.rec != nil {
		if err := a.rec.Close(ctx); err != nil {
			a.log.Warn("metrics shutdown", logx.Err(err))
		}
	}
	err := a.cyc.Close()
	a.logs.Close()
	return err
}
