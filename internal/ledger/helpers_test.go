package ledger

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func tx(id string, typ Type, amount string, at time.Time) Transaction {
	return Transaction{
		ID:     id,
		UserID: "1",
		Name:   "txn " + id,
		Type:   typ,
		Amount: decimal.RequireFromString(amount),
		Date:   at,
	}
}

func ids(txns []Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ID
	}
	return out
}
