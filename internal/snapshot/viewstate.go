package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"money-matters-dashboard/internal/ledger"
)

// ViewStates remembers the last filter state each session asked for, so a
// changed filter sends the session back to the first page.
type ViewStates struct {
	cache Cache
	ttl   time.Duration
}

func NewViewStates(cache Cache, ttl time.Duration) *ViewStates {
	return &ViewStates{cache: cache, ttl: ttl}
}

func viewKey(session, table string) string {
	return "view:" + session + ":" + table
}

// Apply merges next into the session's stored cursor and returns the state to
// render. Storage failures are returned alongside the unstored state.
func (v *ViewStates) Apply(ctx context.Context, session, table string, next ledger.FilterState) (ledger.FilterState, error) {
	key := viewKey(session, table)

	var cur ledger.Cursor
	b, err := v.cache.Get(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &cur.State); err != nil {
			cur = ledger.Cursor{State: next}
		}
	case errors.Is(err, ErrMiss):
		cur = ledger.Cursor{State: next}
	default:
		return next, fmt.Errorf("load view state: %w", err)
	}

	state := cur.Apply(next)
	out, err := json.Marshal(state)
	if err != nil {
		return state, fmt.Errorf("encode view state: %w", err)
	}
	if err := v.cache.Set(ctx, key, out, v.ttl); err != nil {
		return state, fmt.Errorf("store view state: %w", err)
	}
	return state, nil
}

