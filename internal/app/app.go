package app

import (
	"context"
	"os"
	"path/filepath"

	"lp-funding-alert/internal/alerts"
	"lp-funding-alert/internal/config"
	"lp-funding-alert/internal/estimate"
	"lp-funding-alert/internal/gate/rest"
	"lp-funding-alert/internal/market"
	"lp-funding-alert/internal/metrics"
	"lp-funding-alert/internal/state"
	"lp-funding-alert/internal/state/sqlite"
	"lp-funding-alert/internal/timescale"
	"lp-funding-alert/internal/watchlist"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg       *config.Config
	log       *zap.Logger
	watchlist *watchlist.State
	cycle     *AlertCycle
	commands  *CommandChannel
	prom      *metrics.Prometheus
	journal   state.Journal
	timescale *timescale.Writer
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	loc, err := cfg.Alert.Location()
	if err != nil {
		return nil, err
	}
	var journal state.Journal
	if cfg.State.SQLitePath != "" {
		if cfg.State.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
				return nil, err
			}
		}
		store, err := sqlite.New(cfg.State.SQLitePath)
		if err != nil {
			return nil, err
		}
		journal = store
	}
	series, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		return nil, err
	}

	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Timeout, log)
	gateway := market.NewGateway(restClient, cfg.REST.LaunchpoolURL, cfg.Alert.PageSize, loc, log)
	telegram := alerts.NewTelegram(cfg.Telegram, log)
	prom := metrics.NewPrometheus()
	wl := watchlist.New(cfg.Alert.QuoteSuffix)

	cycle := NewAlertCycle(gateway, estimate.New(cfg.Alert.FundingWindow), wl, telegram, cfg.Alert.QuoteSuffix, loc, log.Named("alerts"))
	cycle.SetMetrics(prom.Metrics)
	cycle.SetJournal(journal)
	cycle.SetSeries(series)

	commands, err := NewCommandChannel(telegram, telegram, wl, telegram.ChatID(), cfg.Telegram.PollDelay, log.Named("commands"))
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		_ = series.Close()
		return nil, err
	}
	commands.SetMetrics(prom.Metrics)
	commands.SetJournal(journal)

	return &App{
		cfg:       cfg,
		log:       log,
		watchlist: wl,
		cycle:     cycle,
		commands:  commands,
		prom:      prom,
		journal:   journal,
		timescale: series,
	}, nil
}

// Run starts the alert scheduler, the command loop and the health server and
// blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	a.timescale.Start(ctx)
	a.log.Info("starting",
		zap.Duration("interval", a.cfg.Alert.Interval),
		zap.Duration("funding_window", a.cfg.Alert.FundingWindow),
		zap.String("health_address", a.cfg.Health.Address),
		zap.Bool("journal", a.journal != nil),
		zap.Bool("timescale", a.timescale != nil),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.cycle.Schedule(ctx, a.cfg.Alert.Interval)
	})
	group.Go(func() error {
		return a.commands.Run(ctx)
	})
	group.Go(func() error {
		router := newRouter(a.cfg.Health.MetricsPath, a.prom.Handler())
		return serveHealth(ctx, a.cfg.Health.Address, router, a.log)
	})
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *App) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("journal close failed", zap.Error(err))
		}
	}
	if err := a.timescale.Close(); err != nil {
		a.log.Warn("timescale close failed", zap.Error(err))
	}
}
