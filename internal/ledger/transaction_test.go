package ledger

import (
	"testing"
	"time"
)

func TestDisplayDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	txn := tx("1", Credit, "1", time.Date(2024, time.March, 6, 2, 0, 0, 0, time.UTC))

	if got := txn.DisplayDate(nil); got != "Mar 6, 2024" {
		t.Errorf("utc: got %q", got)
	}
	if got := txn.DisplayDate(ny); got != "Mar 5, 2024" {
		t.Errorf("new york: got %q", got)
	}
}
