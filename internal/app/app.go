package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"signal-watcher/internal/alerting"
	"signal-watcher/internal/config"
	"signal-watcher/internal/cooldown"
	"signal-watcher/internal/fetcher"
	"signal-watcher/internal/scheduler"
	"signal-watcher/internal/service"
	"signal-watcher/internal/storage"
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

func (a *App) newFetcher() fetcher.MarketDataFetcher {
	return fetcher.NewBinance(fetcher.BinanceOptions{
		BaseURL:   a.Config.Market.BaseURL,
		Timeout:   a.Config.Market.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Telegram.Enabled {
		cfg := a.Config.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
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

// cooldownBackend prefers the database; without a DSN it falls back to the
// JSON history file, and with neither configured dedup state is in-memory
// only for the process lifetime.
func (a *App) cooldownBackend(store *storage.Store) cooldown.Backend {
	if store != nil {
		return store
	}
	if path := a.Config.Signals.HistoryFile; path != "" {
		return storage.NewFileBackend(path, a.Logger)
	}
	a.Logger.Warn().Msg("no cooldown persistence configured; dedup state will not survive restarts")
	return nil
}

func (a *App) newTracker(backend cooldown.Backend) *cooldown.Tracker {
	return cooldown.NewTracker(backend, a.Config.Signals.Cooldown, a.Config.Signals.Retention, a.Logger)
}

// Run executes the long-running scanning service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; signal audit log disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	tracker := a.newTracker(a.cooldownBackend(store))
	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("telegram not enabled; notifications will be dropped")
	}

	var signalLog storage.SignalLog
	if store != nil {
		signalLog = store
	}

	svc := service.New(a.Config, sched, a.newFetcher(), tracker, signalLog, notifier, a.Logger)

	a.Logger.Info().Int("symbols", len(a.Config.Symbols)).Msg("starting scanning service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("scanning service stopped")
	return nil
}

// ExportOptions hold parameters for exporting the signal history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
