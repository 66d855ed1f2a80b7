package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/store"

	"github.com/shopspring/decimal"
)

func validDraft() store.Draft {
	return store.Draft{
		UserID:   "3",
		Name:     "Groceries",
		Type:     ledger.Debit,
		Category: "food",
		Amount:   decimal.RequireFromString("42.10"),
		Date:     time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

func TestStructDraft(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*store.Draft)
		wantErr string
	}{
		{"valid", func(*store.Draft) {}, ""},
		{"zero amount", func(d *store.Draft) { d.Amount = decimal.Zero }, ""},
		{"empty category", func(d *store.Draft) { d.Category = "" }, ""},
		{"blank name", func(d *store.Draft) { d.Name = "   " }, "transaction_name must not be blank"},
		{"negative amount", func(d *store.Draft) { d.Amount = decimal.RequireFromString("-0.01") }, "amount must not be negative"},
		{"bad type", func(d *store.Draft) { d.Type = "refund" }, "type must be one of: credit debit"},
		{"missing type", func(d *store.Draft) { d.Type = "" }, "type is required"},
		{"missing date", func(d *store.Draft) { d.Date = time.Time{} }, "date is required"},
		{"long category", func(d *store.Draft) { d.Category = strings.Repeat("x", 51) }, "category must be at most 50 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := Struct(d)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestStructJoinsErrors(t *testing.T) {
	d := validDraft()
	d.Name = ""
	d.Amount = decimal.NewFromInt(-5)
	err := Struct(d)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected both failures joined, got %q", err)
	}
}
