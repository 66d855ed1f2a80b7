// Package ledger turns a fetched transaction collection into the view models the
// dashboard renders: day-bucketed credit/debit series, grand totals and a
// filtered, sorted, paginated table.
//
// Every function in this package is pure. Callers hand in complete snapshots and
// get fresh values back; input slices are never modified.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the direction of a transaction.
type Type string

const (
	Credit Type = "credit"
	Debit  Type = "debit"
)

// DisplayDateLayout is how dates are shown in tables, search and exports.
const DisplayDateLayout = "Jan 2, 2006"

var ErrInvalidType = errors.New("invalid transaction type")

// ParseType accepts "credit" or "debit" in any case.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Credit:
		return Credit, nil
	case Debit:
		return Debit, nil
	}
	return "", ErrInvalidType
}

// Transaction is one externally owned record. Amount is a non-negative
// magnitude; the sign comes from Type. An empty Category means none was set.
type Transaction struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Name     string          `json:"transaction_name"`
	Type     Type            `json:"type"`
	Category string          `json:"category,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

// Signed returns the transaction's contribution to the net balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Credit {
		return t.Amount
	}
	return t.Amount.Neg()
}

// DisplayDate formats the date the way the tables show it.
func (t Transaction) DisplayDate(loc *time.Location) string {
	return t.Date.In(zone(loc)).Format(DisplayDateLayout)
}

func zone(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
