// Package hasura talks to the hosted Hasura REST endpoints that own the
// dashboard's transactions, totals and user profiles.
package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/store"

	"github.com/shopspring/decimal"
)

// Endpoint paths relative to the REST base URL.
const (
	pathTransactions      = "all-transactions"
	pathUserTransactions  = "all-transactions-user"
	pathAddTransaction    = "add-transaction"
	pathUpdateTransaction = "update-transaction"
	pathDeleteTransaction = "delete-transaction"
	pathTotals            = "transaction-totals"
	pathTotalsAdmin       = "transaction-totals-admin"
	pathDaily             = "daywise-totals-last-7-days"
	pathDailyAdmin        = "daywise-totals-last-7-days-admin"
	pathProfiles          = "profile-users"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hasura %s: API request failed with status %d", e.Path, e.Status)
}

// Client is a store.Source and store.Summarizer backed by Hasura REST.
type Client struct {
	baseURL     string
	adminSecret string
	fetchLimit  int
	location    *time.Location
	http        *http.Client
}

// New returns a client for baseURL (e.g. https://example.hasura.app/api/rest).
func New(baseURL, adminSecret string, fetchLimit int) *Client {
	if fetchLimit <= 0 {
		fetchLimit = 500
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		adminSecret: adminSecret,
		fetchLimit:  fetchLimit,
		location:    time.UTC,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

// WithLocation sets the zone the dashboard buckets days in. Daily sums are
// calendar dates and are placed at midnight in loc.
func (c *Client) WithLocation(loc *time.Location) *Client {
	if loc != nil {
		c.location = loc
	}
	return c
}

type wireTransaction struct {
	ID       flexID          `json:"id"`
	UserID   flexID          `json:"user_id"`
	Name     string          `json:"transaction_name"`
	Type     string          `json:"type"`
	Category *string         `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     flexTime        `json:"date"`
}

func (w wireTransaction) ledger() (ledger.Transaction, error) {
	typ, err := ledger.ParseType(w.Type)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction %s: %w", w.ID, err)
	}
	t := ledger.Transaction{
		ID:     string(w.ID),
		UserID: string(w.UserID),
		Name:   w.Name,
		Type:   typ,
		Amount: w.Amount,
		Date:   time.Time(w.Date),
	}
	if w.Category != nil {
		t.Category = *w.Category
	}
	return t, nil
}

type totalRow struct {
	Date flexTime         `json:"date"`
	Type string           `json:"type"`
	Sum  *decimal.Decimal `json:"sum"`
}

func (r totalRow) amount() decimal.Decimal {
	if r.Sum == nil {
		return decimal.Zero
	}
	return *r.Sum
}

// List fetches one page of up to fetchLimit transactions, newest first.
func (c *Client) List(ctx context.Context, scope store.Scope) ([]ledger.Transaction, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.fetchLimit))
	q.Set("offset", "0")
	path := pathTransactions
	if !scope.All {
		path = pathUserTransactions
		q.Set("user_id", scope.UserID)
	}

	var body struct {
		Transactions *[]wireTransaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, path, q, scope, nil, &body); err != nil {
		return nil, err
	}
	if body.Transactions == nil {
		return nil, errors.New("hasura: no transactions data found in response")
	}

	out := make([]ledger.Transaction, 0, len(*body.Transactions))
	for _, w := range *body.Transactions {
		t, err := w.ledger()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type draftPayload struct {
	ID       string          `json:"id,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Category *string         `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
}

func payload(id string, d store.Draft) draftPayload {
	p := draftPayload{
		ID:     id,
		UserID: d.UserID,
		Name:   d.Name,
		Type:   string(d.Type),
		Amount: d.Amount,
		Date:   d.Date.UTC().Format(time.RFC3339),
	}
	if d.Category != "" {
		p.Category = &d.Category
	}
	return p
}

func (c *Client) Create(ctx context.Context, d store.Draft) (ledger.Transaction, error) {
	var body struct {
		Row *wireTransaction `json:"insert_transactions_one"`
	}
	scope := store.Scope{UserID: d.UserID}
	if err := c.do(ctx, http.MethodPost, pathAddTransaction, nil, scope, payload("", d), &body); err != nil {
		return ledger.Transaction{}, err
	}
	if body.Row == nil {
		return ledger.Transaction{}, errors.New("hasura: insert returned no row")
	}
	return body.Row.ledger()
}

func (c *Client) Update(ctx context.Context, scope store.Scope, id string, d store.Draft) (ledger.Transaction, error) {
	var body struct {
		Row *wireTransaction `json:"update_transactions_by_pk"`
	}
	d.UserID = ""
	if err := c.do(ctx, http.MethodPost, pathUpdateTransaction, nil, scope, payload(id, d), &body); err != nil {
		return ledger.Transaction{}, err
	}
	if body.Row == nil {
		return ledger.Transaction{}, store.ErrNotFound
	}
	return body.Row.ledger()
}

func (c *Client) Delete(ctx context.Context, scope store.Scope, id string) error {
	var body struct {
		Row *struct {
			ID flexID `json:"id"`
		} `json:"delete_transactions_by_pk"`
	}
	q := url.Values{"id": {id}}
	if err := c.do(ctx, http.MethodDelete, pathDeleteTransaction, q, scope, nil, &body); err != nil {
		return err
	}
	if body.Row == nil {
		return store.ErrNotFound
	}
	return nil
}

func (c *Client) UserNames(ctx context.Context) (map[string]string, error) {
	var body struct {
		Users []struct {
			ID   flexID `json:"id"`
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, pathProfiles, nil, store.Scope{All: true}, nil, &body); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(body.Users))
	for _, u := range body.Users {
		names[string(u.ID)] = u.Name
	}
	return names, nil
}

// Totals returns the credit and debit grand totals computed by Hasura.
func (c *Client) Totals(ctx context.Context, scope store.Scope) (ledger.Totals, error) {
	path := pathTotals
	if scope.All {
		path = pathTotalsAdmin
	}
	rows, err := c.rows(ctx, path, scope)
	if err != nil {
		return ledger.Totals{}, err
	}
	totals := ledger.Totals{Credit: decimal.Zero, Debit: decimal.Zero}
	for _, r := range rows {
		switch r.Type {
		case string(ledger.Credit):
			totals.Credit = totals.Credit.Add(r.amount())
		case string(ledger.Debit):
			totals.Debit = totals.Debit.Add(r.amount())
		}
	}
	return totals, nil
}

// DailyTotals returns per-day, per-type sums for the last seven days.
func (c *Client) DailyTotals(ctx context.Context, scope store.Scope) ([]ledger.Transaction, error) {
	path := pathDaily
	if scope.All {
		path = pathDailyAdmin
	}
	rows, err := c.rows(ctx, path, scope)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Transaction, 0, len(rows))
	for _, r := range rows {
		typ := ledger.Debit
		if r.Type == string(ledger.Credit) {
			typ = ledger.Credit
		}
		y, m, d := time.Time(r.Date).Date()
		out = append(out, ledger.Transaction{
			UserID: scope.UserID,
			Type:   typ,
			Amount: r.amount(),
			Date:   time.Date(y, m, d, 0, 0, 0, 0, c.location),
		})
	}
	return out, nil
}

// rows decodes responses shaped {"<some_key>": [{date?, type, sum}]}. The key
// differs between the user and admin variants, so every array is collected.
func (c *Client) rows(ctx context.Context, path string, scope store.Scope) ([]totalRow, error) {
	var body map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, scope, nil, &body); err != nil {
		return nil, err
	}
	var out []totalRow
	for key, raw := range body {
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var rows []totalRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("hasura %s: decode %s: %w", path, key, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"limit": {"1"}, "offset": {"0"}}
	var body json.RawMessage
	return c.do(ctx, http.MethodGet, pathTransactions, q, store.Scope{All: true}, nil, &body)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, scope store.Scope, in, out any) error {
	u := c.baseURL + "/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("hasura %s: encode request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("hasura %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.adminSecret != "" {
		req.Header.Set("x-hasura-admin-secret", c.adminSecret)
	}
	if scope.All {
		req.Header.Set("x-hasura-role", "admin")
	} else {
		req.Header.Set("x-hasura-role", "user")
		req.Header.Set("x-hasura-user-id", scope.UserID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hasura %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hasura %s: decode response: %w", path, err)
	}
	return nil
}
