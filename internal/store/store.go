// Package store defines the data collaborator the dashboard reads snapshots
// from and forwards mutations to.
package store

import (
	"context"
	"errors"
	"time"

	"money-matters-dashboard/internal/ledger"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidUser marks a caller id the backend cannot address.
	ErrInvalidUser = errors.New("invalid user id")
)

// Scope selects whose transactions a snapshot holds. All is the admin scope.
type Scope struct {
	UserID string
	All    bool
}

// Key identifies the scope in caches.
func (s Scope) Key() string {
	if s.All {
		return "all"
	}
	return "user:" + s.UserID
}

// Draft is a validated add/edit form.
type Draft struct {
	UserID   string          `json:"user_id"`
	Name     string          `json:"transaction_name" validate:"notblank,max=200"`
	Type     ledger.Type     `json:"type" validate:"required,oneof=credit debit"`
	Category string          `json:"category" validate:"max=50"`
	Amount   decimal.Decimal `json:"amount" validate:"nonneg"`
	Date     time.Time       `json:"date" validate:"required"`
}

// Transaction builds the ledger record a draft describes.
func (d Draft) Transaction(id string) ledger.Transaction {
	return ledger.Transaction{
		ID:       id,
		UserID:   d.UserID,
		Name:     d.Name,
		Type:     d.Type,
		Category: d.Category,
		Amount:   d.Amount,
		Date:     d.Date,
	}
}

type (
	// Reader fetches complete snapshots.
	Reader interface {
		List(ctx context.Context, scope Scope) ([]ledger.Transaction, error)
	}

	// Writer forwards mutations. Update and Delete return ErrNotFound when the
	// id does not exist inside scope.
	Writer interface {
		Create(ctx context.Context, d Draft) (ledger.Transaction, error)
		Update(ctx context.Context, scope Scope, id string, d Draft) (ledger.Transaction, error)
		Delete(ctx context.Context, scope Scope, id string) error
	}

	// Directory resolves user ids to display names.
	Directory interface {
		UserNames(ctx context.Context) (map[string]string, error)
	}

	// Summarizer is implemented by backends that aggregate server side.
	// DailyTotals returns one record per (date, type) for the last seven
	// days, with Amount holding the day's sum.
	Summarizer interface {
		Totals(ctx context.Context, scope Scope) (ledger.Totals, error)
		DailyTotals(ctx context.Context, scope Scope) ([]ledger.Transaction, error)
	}

	// Source is everything the dashboard needs from its backend.
	Source interface {
		Reader
		Writer
		Directory
		Ping(ctx context.Context) error
	}
)

// DisplayName falls back to "User <id>" for unknown ids.
func DisplayName(names map[string]string, userID string) string {
	if n, ok := names[userID]; ok && n != "" {
		return n
	}
	return "User " + userID
}
