// Package snapshot fetches transaction collections from the data source and
// keeps them in a read-through cache. A refresh always replaces the whole
// collection.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/logger"
	"money-matters-dashboard/internal/store"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot is served from cache.
const DefaultTTL = 60 * time.Second

// FetchTimeout bounds one shared fetch from the source.
const FetchTimeout = 30 * time.Second

// Snapshot is one fetched collection.
type Snapshot struct {
	Scope        string               `json:"scope"`
	Transactions []ledger.Transaction `json:"transactions"`
	Names        map[string]string    `json:"names"`
	FetchedAt    time.Time            `json:"fetched_at"`
}

// Resolver returns a user-name resolver for admin snapshots and nil otherwise.
// Unknown ids resolve to the "User <id>" fallback.
func (s *Snapshot) Resolver() ledger.UserNameResolver {
	if s.Scope != adminScopeKey {
		return nil
	}
	return func(id string) string { return store.DisplayName(s.Names, id) }
}

// Loader is a read-through cache in front of a store.Source. Concurrent
// misses for one scope share a single fetch.
type Loader struct {
	source store.Source
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
}

func NewLoader(source store.Source, cache Cache, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{source: source, cache: cache, ttl: ttl, now: time.Now}
}

var adminScopeKey = store.Scope{All: true}.Key()

func cacheKey(scope store.Scope) string {
	return "snapshot:" + scope.Key()
}

// Load returns the cached snapshot for scope, fetching it on a miss. The
// fetch is shared by every concurrent caller and outlives any one of them;
// a caller whose ctx ends stops waiting without cancelling it.
func (l *Loader) Load(ctx context.Context, scope store.Scope) (*Snapshot, error) {
	key := cacheKey(scope)
	log := logger.FromContext(ctx)
	if b, err := l.cache.Get(ctx, key); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(b, &snap); err == nil {
			return &snap, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached snapshot")
	} else if !errors.Is(err, ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
	}

	ch := l.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		return l.fetch(fctx, scope)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (l *Loader) fetch(ctx context.Context, scope store.Scope) (*Snapshot, error) {
	snap := &Snapshot{Scope: scope.Key()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := l.source.List(gctx, scope)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.Transactions = txns
		return nil
	})
	if scope.All {
		g.Go(func() error {
			names, err := l.source.UserNames(gctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			snap.Names = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snap.Transactions == nil {
		snap.Transactions = []ledger.Transaction{}
	}
	if scope.All && snap.Names == nil {
		snap.Names = map[string]string{}
	}
	snap.FetchedAt = l.now().UTC()

	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := l.cache.Set(ctx, cacheKey(scope), b, l.ttl); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("scope", scope.Key()).Msg("snapshot cache write failed")
	}
	return snap, nil
}

// Invalidate drops the scope's snapshot and the admin snapshot, which
// contains every user's rows.
func (l *Loader) Invalidate(ctx context.Context, scope store.Scope) error {
	keys := []string{cacheKey(store.Scope{All: true})}
	if !scope.All {
		keys = append(keys, cacheKey(scope))
	}
	return l.cache.Delete(ctx, keys...)
}

// Refresh invalidates and reloads scope.
func (l *Loader) Refresh(ctx context.Context, scope store.Scope) (*Snapshot, error) {
	if err := l.Invalidate(ctx, scope); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("scope", scope.Key()).Msg("snapshot invalidate failed")
	}
	return l.Load(ctx, scope)
}
