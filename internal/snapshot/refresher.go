package snapshot

import (
	"context"
	"time"

	"money-matters-dashboard/internal/logger"
	"money-matters-dashboard/internal/store"
)

// DefaultRefreshInterval matches the admin view's auto-refresh.
const DefaultRefreshInterval = 30 * time.Second

// Refresher periodically reloads one scope so readers find a warm cache.
type Refresher struct {
	Loader   *Loader
	Scope    store.Scope
	Interval time.Duration

	// OnRefresh, when set, is called after every successful reload.
	OnRefresh func(*Snapshot)
}

// Run blocks until ctx is cancelled. Failed reloads are logged and retried on
// the next tick.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	log := logger.FromContext(ctx).With().Str("scope", r.Scope.Key()).Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("refresher stopped")
			return
		case <-ticker.C:
			snap, err := r.Loader.Refresh(ctx, r.Scope)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("snapshot refresh failed")
				continue
			}
			log.Debug().Int("transactions", len(snap.Transactions)).Msg("snapshot refreshed")
			if r.OnRefresh != nil {
				r.OnRefresh(snap)
			}
		}
	}
}
