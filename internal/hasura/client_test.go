package hasura

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/rest/", "s3cret", 0)
}

func TestListAdminScope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest/all-transactions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("limit = %q, want 500", got)
		}
		if got := r.Header.Get("x-hasura-admin-secret"); got != "s3cret" {
			t.Errorf("admin secret = %q", got)
		}
		if got := r.Header.Get("x-hasura-role"); got != "admin" {
			t.Errorf("role = %q, want admin", got)
		}
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":41,"user_id":3,"transaction_name":"Salary","type":"credit","category":"Salary","amount":2500.5,"date":"2024-03-04T09:00:00+00:00"},
			{"id":"42","user_id":"7","transaction_name":"Coffee","type":"debit","category":null,"amount":"3.20","date":"2024-03-05T10:30:00"}
		]}`))
	})

	got, err := c.List(context.Background(), store.Scope{All: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []ledger.Transaction{
		{ID: "41", UserID: "3", Name: "Salary", Type: ledger.Credit, Category: "Salary", Amount: decimal.RequireFromString("2500.5"), Date: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		{ID: "42", UserID: "7", Name: "Coffee", Type: ledger.Debit, Amount: decimal.RequireFromString("3.20"), Date: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
	}
	opt := cmp.Options{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
	}
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestListUserScopeHeaders(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest/all-transactions-user" || r.URL.Query().Get("user_id") != "7" {
			t.Errorf("url = %s", r.URL)
		}
		if got := r.Header.Get("x-hasura-role"); got != "user" {
			t.Errorf("role = %q, want user", got)
		}
		if got := r.Header.Get("x-hasura-user-id"); got != "7" {
			t.Errorf("user id = %q, want 7", got)
		}
		_, _ = w.Write([]byte(`{"transactions":[]}`))
	})
	got, err := c.List(context.Background(), store.Scope{UserID: "7"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestListErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"status", http.StatusInternalServerError, `{}`},
		{"missing key", http.StatusOK, `{"rows":[]}`},
		{"bad type", http.StatusOK, `{"transactions":[{"id":1,"type":"refund","amount":1,"date":"2024-01-01"}]}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})
			if _, err := c.List(context.Background(), store.Scope{All: true}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.List(context.Background(), store.Scope{All: true})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", se.Status)
	}
}

func TestTotalsToleratesNullSum(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest/transaction-totals-admin" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"transaction_totals_admin":[{"type":"credit","sum":120.5},{"type":"debit","sum":null}]}`))
	})
	got, err := c.Totals(context.Background(), store.Scope{All: true})
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !got.Credit.Equal(decimal.RequireFromString("120.5")) || !got.Debit.IsZero() {
		t.Errorf("totals = %+v", got)
	}
}

func TestDailyTotalsUserPath(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest/daywise-totals-last-7-days" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"last_7_days_transactions_credit_debit_totals":[
			{"date":"2024-03-04","type":"credit","sum":10},
			{"date":"2024-03-04","type":"debit","sum":4}
		],"count":2}`))
	})
	got, err := c.DailyTotals(context.Background(), store.Scope{UserID: "3"})
	if err != nil {
		t.Fatalf("DailyTotals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	days := ledger.AggregateByDay(got, ledger.MondayFirst, time.UTC)
	if !days[0].Credit.Equal(decimal.NewFromInt(10)) || !days[0].Debit.Equal(decimal.NewFromInt(4)) {
		t.Errorf("monday = %+v", days[0])
	}
}

func TestDailyTotalsKeepCalendarDateInZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"last_7_days_transactions_credit_debit_totals_admin":[
			{"date":"2024-03-05","type":"credit","sum":10}
		]}`))
	}).WithLocation(ny)

	got, err := c.DailyTotals(context.Background(), store.Scope{All: true})
	if err != nil {
		t.Fatalf("DailyTotals: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if want := time.Date(2024, 3, 5, 0, 0, 0, 0, ny); !got[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", got[0].Date, want)
	}
	days := ledger.AggregateByDay(got, ledger.MondayFirst, ny)
	if !days[1].Credit.Equal(decimal.NewFromInt(10)) {
		t.Errorf("tuesday = %+v, all = %+v", days[1], days)
	}
}

func TestCreateSendsPayload(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rest/add-transaction" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var p map[string]any
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p["name"] != "Rent" || p["user_id"] != "3" || p["category"] != nil {
			t.Errorf("payload = %v", p)
		}
		_, _ = w.Write([]byte(`{"insert_transactions_one":{"id":9,"user_id":3,"transaction_name":"Rent","type":"debit","amount":900,"date":"2024-03-01T00:00:00Z"}}`))
	})
	got, err := c.Create(context.Background(), store.Draft{
		UserID: "3", Name: "Rent", Type: ledger.Debit,
		Amount: decimal.NewFromInt(900), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != "9" || got.Name != "Rent" {
		t.Errorf("created = %+v", got)
	}
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rest/update-transaction":
			_, _ = w.Write([]byte(`{"update_transactions_by_pk":null}`))
		case "/api/rest/delete-transaction":
			if r.URL.Query().Get("id") != "77" {
				t.Errorf("id = %q", r.URL.Query().Get("id"))
			}
			_, _ = w.Write([]byte(`{"delete_transactions_by_pk":null}`))
		}
	})
	ctx := context.Background()
	scope := store.Scope{UserID: "3"}
	if _, err := c.Update(ctx, scope, "77", store.Draft{Name: "x", Type: ledger.Credit}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update err = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, scope, "77"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestUserNames(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"id":1,"name":"Jane Doe"},{"id":"3","name":"Admin"}]}`))
	})
	got, err := c.UserNames(context.Background())
	if err != nil {
		t.Fatalf("UserNames: %v", err)
	}
	want := map[string]string{"1": "Jane Doe", "3": "Admin"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
