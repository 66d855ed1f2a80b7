package main

import (
	"fmt"
	"time"

	"money-matters-dashboard/internal/ledger"

	"github.com/shopspring/decimal"
)

// filterQuery is the query string of the list and export endpoints.
// Category and user may repeat.
type filterQuery struct {
	Tab        string   `form:"tab"`
	Search     string   `form:"q"`
	Categories []string `form:"category"`
	Users      []string `form:"user"`
	Sort       string   `form:"sort"`
	Dir        string   `form:"dir"`
	Offset     int      `form:"offset"`
	Limit      *int     `form:"limit"`
}

// state converts the query into a FilterState with defaults applied.
func (q filterQuery) state(defaultLimit, maxLimit int) (ledger.FilterState, error) {
	st := ledger.FilterState{
		Tab:        ledger.TabAll,
		Search:     q.Search,
		Categories: q.Categories,
		Users:      q.Users,
		SortKey:    ledger.SortDate,
		SortDir:    ledger.Desc,
		Offset:     q.Offset,
		Limit:      defaultLimit,
	}

	switch ledger.Tab(q.Tab) {
	case "":
	case ledger.TabAll, ledger.TabCredit, ledger.TabDebit:
		st.Tab = ledger.Tab(q.Tab)
	default:
		return st, fmt.Errorf("invalid tab %q", q.Tab)
	}

	switch ledger.SortDir(q.Dir) {
	case "":
	case ledger.Asc, ledger.Desc:
		st.SortDir = ledger.SortDir(q.Dir)
	default:
		return st, fmt.Errorf("invalid sort direction %q", q.Dir)
	}

	if q.Sort != "" {
		st.SortKey = q.Sort
	}
	if q.Limit != nil {
		st.Limit = min(*q.Limit, maxLimit)
	}
	return st, nil
}

type totalsResponse struct {
	Credit decimal.Decimal `json:"credit"`
	Debit  decimal.Decimal `json:"debit"`
	Net    decimal.Decimal `json:"net"`
}

func newTotalsResponse(t ledger.Totals) totalsResponse {
	return totalsResponse{Credit: t.Credit, Debit: t.Debit, Net: t.Net()}
}

type dashboardResponse struct {
	Totals       totalsResponse       `json:"totals"`
	Distribution []ledger.Slice       `json:"distribution"`
	Weekly       []ledger.DayBucket   `json:"weekly"`
	Daily        []ledger.DayBucket   `json:"daily"`
	Recent       []ledger.Transaction `json:"recent"`
	LastUpdated  time.Time            `json:"last_updated"`
}

type listResponse struct {
	Page        []ledger.Transaction `json:"page"`
	Total       int                  `json:"total"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
	HasPrev     bool                 `json:"has_prev"`
	HasNext     bool                 `json:"has_next"`
	Totals      totalsResponse       `json:"totals"`
	LastUpdated time.Time            `json:"last_updated"`
}

type userFacet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type facetsResponse struct {
	Categories []string    `json:"categories"`
	Users      []userFacet `json:"users,omitempty"`
}

type refreshResponse struct {
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
}
