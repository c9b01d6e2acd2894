// Package app wires the bot together: config, logging, storage, transport,
// queue, fan-out engine, statistics, and the scheduled report.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/garpil124/menfes/internal/broadcast"
	"github.com/garpil124/menfes/internal/config"
	"github.com/garpil124/menfes/internal/handlers"
	"github.com/garpil124/menfes/internal/queue"
	"github.com/garpil124/menfes/internal/report"
	rtsup "github.com/garpil124/menfes/internal/runtime/supervisor"
	"github.com/garpil124/menfes/internal/stats"
	"github.com/garpil124/menfes/internal/storage"
	kit "github.com/garpil124/menfes/internal/transport"
	telegram "github.com/garpil124/menfes/internal/transport/telegram/adapter"
	"github.com/garpil124/menfes/internal/transport/telegram/router"
	logx "github.com/garpil124/menfes/pkg/logx"
)

type StopReason string

const (
	StopSignal StopReason = "signal"
	StopFatal  StopReason = "fatal"
)

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	adapter  *telegram.Adapter
	rt       *router.Router
	engine   *broadcast.Engine
	queue    *queue.Queue
	stats    *stats.Service
	reporter *report.Reporter

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
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

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	// owners read through the manager so a hot reload reaches the queue and
	// reporter without restart
	owners := func() []int64 {
		if c := cfgm.Get(); c != nil {
			return c.Telegram.OwnerUserIDs
		}
		return nil
	}

	bcCfg := broadcast.Config{}
	if cfg.Broadcast != nil {
		bcCfg.RatePerSec = cfg.Broadcast.RatePerSec
		bcCfg.SendTimeout, err = config.ParseDurationOrDefault("broadcast.send_timeout", cfg.Broadcast.SendTimeout, 0)
		if err != nil {
			return nil, err
		}
	}
	engine := broadcast.New(bcCfg, st, ad, loc, log.With(logx.String("comp", "broadcast")))
	q := queue.New(st, ad, owners, loc, log.With(logx.String("comp", "queue")))
	statsSvc := stats.New(st)

	repCfg := report.Config{}
	if cfg.Report != nil {
		repCfg.Enabled = cfg.Report.Enabled
		repCfg.Spec = cfg.Report.Cron
	}
	reporter := report.New(repCfg, statsSvc, ad, owners, loc, log.With(logx.String("comp", "report")))

	rt := router.New(ad, cfg.Telegram.OwnerUserIDs, log.With(logx.String("comp", "router")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    st,
		adapter:  ad,
		rt:       rt,
		engine:   engine,
		queue:    q,
		stats:    statsSvc,
		reporter: reporter,
		updates:  make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		return cfg.Validate()
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	d := handlers.Deps{
		Store:  a.store,
		Queue:  a.queue,
		Engine: a.engine,
		Stats:  a.stats,
		Log:    a.log.With(logx.String("comp", "handlers")),
	}
	a.rt.Register(a.sup.Context(), handlers.Commands(d), handlers.Callbacks(d))
	a.rt.SetIntake(handlers.Intake(d))

	a.sup.Go("router.dispatch", func(c context.Context) error {
		return a.rt.DispatchLoop(c, a.updates)
	})
	a.sup.Go("report.schedule", func(c context.Context) error {
		return a.reporter.Start(c)
	})

	// hot reload: apply logging and owner changes live, warn for the rest
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(last, newCfg)
				last = newCfg
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

func (a *App) applyConfig(old, cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.rt.SetOwners(cfg.Telegram.OwnerUserIDs)

	if old != nil {
		if cfg.Storage != old.Storage {
			a.log.Warn("storage config changed; restart required")
		}
		if cfg.Telegram.Token != old.Telegram.Token || cfg.Telegram.PollTimeout != old.Telegram.PollTimeout {
			a.log.Warn("telegram config changed; restart required")
		}
		if cfg.Timezone != old.Timezone {
			a.log.Warn("timezone changed; restart required")
		}
	}

	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	// bound every shutdown step so one component cannot stall the stop
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", 1*time.Second, func(c context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
