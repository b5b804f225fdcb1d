package app

import (
	"context"
	"time"

	"signal-watcher/internal/service"
	"signal-watcher/internal/storage"
)

// Scan runs a single scan pass over all configured symbols and exits. Useful
// for cron-style deployments and for verifying configuration.
func (a *App) Scan(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	tracker := a.newTracker(a.cooldownBackend(store))
	tracker.Load(ctx)

	var signalLog storage.SignalLog
	if store != nil {
		signalLog = store
	}
	svc := service.New(a.Config, nil, a.newFetcher(), tracker, signalLog, a.newNotifier(), a.Logger)

	return svc.RunPass(ctx, time.Now().UTC())
}
