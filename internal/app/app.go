package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aungthurhahein/GaruduaEye/internal/alerting"
	"github.com/aungthurhahein/GaruduaEye/internal/api"
	"github.com/aungthurhahein/GaruduaEye/internal/config"
	"github.com/aungthurhahein/GaruduaEye/internal/fetcher"
	"github.com/aungthurhahein/GaruduaEye/internal/metrics"
	"github.com/aungthurhahein/GaruduaEye/internal/scheduler"
	"github.com/aungthurhahein/GaruduaEye/internal/service"
	"github.com/aungthurhahein/GaruduaEye/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newRateAPI() *fetcher.RateAPI {
	return fetcher.NewRateAPI(fetcher.RateAPIOptions{
		BaseURL:       a.Config.Source.BaseURL,
		BaseCurrency:  a.Config.Source.BaseCurrency,
		QuoteCurrency: a.Config.Source.QuoteCurrency,
		Timeout:       a.Config.Source.RequestTimeout,
		UserAgent:     a.Config.Source.UserAgent,
	}, a.Logger)
}

func (a *App) newFallback() *fetcher.SyntheticSource {
	return fetcher.NewSyntheticSource(
		a.Config.Synthetic.Seed,
		a.Config.Synthetic.BaseRate,
		a.Config.Synthetic.SpreadPct,
	)
}

func (a *App) newMessenger() alerting.Messenger {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramMessenger(cfg.BotToken, cfg.APIBase, cfg.RequestTimeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newMonitor(store *storage.Store, recorder *metrics.Recorder) *service.Monitor {
	deps := service.Deps{
		Source:    a.newRateAPI(),
		History:   a.newRateAPI(),
		Fallback:  a.newFallback(),
		Messenger: a.newMessenger(),
		Recorder:  recorder,
		LockKey:   a.Config.Scheduler.AdvisoryLockKey,
		AlertsOn:  a.Config.Alerting.Enabled,
	}
	if store != nil {
		deps.Points = store
		deps.Events = store
		deps.RuleStore = store
		deps.Locker = store
	}
	return service.NewMonitor(deps, a.Logger)
}

// Run executes the long-running monitoring service, optionally alongside
// the alert service HTTP listener.
func (a *App) Run(ctx context.Context, withAPI bool) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	recorder := metrics.New()
	monitor := a.newMonitor(store, recorder)

	if err := monitor.Bootstrap(ctx, a.Config.Source.HistoryDays); err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:        a.Config.Scheduler.Interval,
		AlignToInterval: a.Config.Scheduler.AlignToInterval,
		StartupDelay:    a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	errCh := make(chan error, 2)
	if withAPI {
		server := api.NewServer(a.Config.API, monitor, a.Logger)
		go func() {
			errCh <- server.Run(ctx)
		}()
	}

	a.Logger.Info().Msg("starting monitoring service")
	go func() {
		errCh <- sched.Run(ctx, monitor.RunCycle)
	}()

	err = <-errCh
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical points.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}

// SeedOptions configure the synthetic seed job.
type SeedOptions struct {
	Days   int
	DryRun bool
}
